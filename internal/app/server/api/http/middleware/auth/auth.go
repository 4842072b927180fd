package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/app/server/api/http/httperr"
	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/domain/session"
	"vaultkeeper/internal/domain/user"
)

type Auth struct {
	session session.Servicer
	users   user.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, users user.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		users:   users,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const (
	UserIDKey contextKey = "userID"
	TokenKey  contextKey = "token"
)

const bearerPrefix = "Bearer "

// Middleware resolves the bearer token to a user id. Every failure gets
// the same 401 body.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			a.log.Debug("missing bearer token", "path", ctx.URL().Path)
			writeError(ctx, http.StatusUnauthorized, a.log)
			return
		}
		token := strings.TrimSpace(header[len(bearerPrefix):])

		userID, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			if apperr.Kind(err) != apperr.ErrAuthentication {
				a.log.Error("session lookup failed", "error", err)
				writeError(ctx, http.StatusInternalServerError, a.log)
				return
			}
			a.log.Debug("invalid session", "path", ctx.URL().Path)
			writeError(ctx, http.StatusUnauthorized, a.log)
			return
		}

		newCtx := context.WithValue(ctx.Context(), UserIDKey, userID)
		newCtx = context.WithValue(newCtx, TokenKey, token)
		next(huma.WithContext(ctx, newCtx))
	}
}

// RequireAdmin must run after Middleware.
func (a *Auth) RequireAdmin() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		userID, ok := GetUserID(ctx.Context())
		if !ok {
			writeError(ctx, http.StatusUnauthorized, a.log)
			return
		}

		u, err := a.users.Get(ctx.Context(), userID)
		if err != nil {
			if apperr.Kind(err) == apperr.ErrNotFound {
				writeError(ctx, http.StatusUnauthorized, a.log)
				return
			}
			a.log.Error("admin lookup failed", "user_id", userID, "error", err)
			writeError(ctx, http.StatusInternalServerError, a.log)
			return
		}
		if !u.IsAdmin {
			a.log.Info("admin route denied", "user_id", userID, "path", ctx.URL().Path)
			writeError(ctx, http.StatusForbidden, a.log)
			return
		}

		next(ctx)
	}
}

func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func writeError(ctx huma.Context, status int, log *slog.Logger) {
	kind, detail := "authentication", apperr.ErrAuthentication.Error()
	switch status {
	case http.StatusForbidden:
		kind, detail = "forbidden", apperr.ErrForbidden.Error()
	case http.StatusInternalServerError:
		kind, detail = "internal", apperr.ErrInternal.Error()
	}

	ctx.SetHeader("Content-Type", "application/problem+json")
	ctx.SetStatus(status)
	if err := json.NewEncoder(ctx.BodyWriter()).Encode(httperr.New(status, kind, detail)); err != nil {
		log.Error("write error response", "error", err)
	}
}
