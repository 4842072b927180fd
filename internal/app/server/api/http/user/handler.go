package user

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/app/server/api/http/httperr"
	"vaultkeeper/internal/app/server/api/http/middleware/auth"
	"vaultkeeper/internal/domain/session"
	"vaultkeeper/internal/domain/user"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
	authed     huma.Middlewares
}

// NewHandler takes the middlewares for public routes and for routes that
// need a session.
func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger,
	middleware, authed huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    session,
		log:        log.With("component", "user_handler"),
		middleware: middleware,
		authed:     authed,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.logoutOp(), h.logout)
	huma.Register(api, h.meOp(), h.me)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	userID, err := h.service.Register(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}

	return &registerOutput{Body: RegisterResponse{ID: userID}}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}

	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}

	return &loginOutput{
		Body: LoginResponse{Token: token, User: u.Summary()},
	}, nil
}

func (h *Handler) logout(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	token, ok := auth.GetToken(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	if err := h.session.Delete(ctx, token); err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &statusOutput{Body: StatusResponse{Status: "Ok"}}, nil
}

func (h *Handler) me(ctx context.Context, _ *struct{}) (*meOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	u, err := h.service.Get(ctx, userID)
	if err != nil {
		return nil, httperr.From(h.log, err)
	}
	return &meOutput{Body: u.Summary()}, nil
}
