package record

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/app/server/api/http/httperr"
	"vaultkeeper/internal/app/server/api/http/middleware/auth"
	"vaultkeeper/internal/domain/record"
)

type Handler struct {
	service    record.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service record.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "record_handler"),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	records, err := h.service.List(ctx, userID)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &listOutput{Body: records}, nil
}

func (h *Handler) find(ctx context.Context, input *idInput) (*recordOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	rec, err := h.service.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &recordOutput{Body: rec}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*recordOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	rec, err := h.service.Create(ctx, userID, input.Body.wire())
	if err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &recordOutput{Body: rec}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*recordOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	w := input.Body.wire()
	w.ID = input.ID
	rec, err := h.service.Update(ctx, userID, w)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &recordOutput{Body: rec}, nil
}

func (h *Handler) delete(ctx context.Context, input *idInput) (*struct{}, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	if err := h.service.Delete(ctx, userID, input.ID); err != nil {
		return nil, httperr.From(h.log, err)
	}
	return nil, nil
}
