package admin

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/app/server/api/http/httperr"
	"vaultkeeper/internal/app/server/api/http/middleware/auth"
	"vaultkeeper/internal/domain/transfer"
	"vaultkeeper/internal/domain/user"
)

type Handler struct {
	users      user.Servicer
	transfer   transfer.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
	adminOnly  huma.Middlewares
}

func NewHandler(users user.Servicer, transfer transfer.Servicer, log *slog.Logger,
	middleware, adminOnly huma.Middlewares) *Handler {
	return &Handler{
		users:      users,
		transfer:   transfer,
		log:        log.With("component", "admin_handler"),
		middleware: middleware,
		adminOnly:  adminOnly,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.setupOp(), h.setup)
	huma.Register(api, h.exportOp(), h.export)
	huma.Register(api, h.importOp(), h.importDocument)
}

func (h *Handler) setup(ctx context.Context, input *setupInput) (*setupOutput, error) {
	id, err := h.users.SetupAdmin(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}

	out := &setupOutput{}
	out.Body.ID = id
	return out, nil
}

func (h *Handler) export(ctx context.Context, _ *struct{}) (*exportOutput, error) {
	doc, err := h.transfer.Export(ctx)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}

	adminID, _ := auth.GetUserID(ctx)
	h.log.Info("export served", "user_id", adminID, "users", len(doc.Users), "records", len(doc.Records))
	return &exportOutput{Body: doc}, nil
}

func (h *Handler) importDocument(ctx context.Context, input *importInput) (*importOutput, error) {
	stats, err := h.transfer.Import(ctx, input.Body, input.Truncate)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}

	adminID, _ := auth.GetUserID(ctx)
	h.log.Info("import applied", "user_id", adminID, "truncate", input.Truncate)
	return &importOutput{Body: stats}, nil
}
