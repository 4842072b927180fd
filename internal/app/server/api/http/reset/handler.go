package reset

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/app/server/api/http/httperr"
	"vaultkeeper/internal/domain/reset"
)

type Handler struct {
	service    reset.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service reset.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "reset_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.requestOp(), h.request)
	huma.Register(api, h.redeemOp(), h.redeem)
}

// request answers the same way whether or not the account exists.
func (h *Handler) request(ctx context.Context, input *requestInput) (*statusOutput, error) {
	if err := h.service.Request(ctx, input.Body.Username); err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &statusOutput{Body: StatusResponse{Status: "Accepted"}}, nil
}

func (h *Handler) redeem(ctx context.Context, input *redeemInput) (*statusOutput, error) {
	if err := h.service.Redeem(ctx, input.Body.Token, input.Body.NewPassword); err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &statusOutput{Body: StatusResponse{Status: "Ok"}}, nil
}
