// Package api exposes the vault over HTTP. The server stores ciphertext
// it cannot read; it only authenticates owners and scopes their records.
//
//	GET    /api/v1/health
//	POST   /user/register, /user/login
//	POST   /user/logout            (auth)
//	GET    /user/me                (auth)
//	POST   /user/reset/request, /user/reset/redeem
//	POST   /admin/setup            (once)
//	GET    /admin/export           (admin)
//	POST   /admin/import           (admin)
//	GET    /api/records            (auth)
//	POST   /api/records            (auth)
//	GET    /api/records/{id}       (auth)
//	PUT    /api/records/{id}       (auth)
//	DELETE /api/records/{id}       (auth)
package api

import (
	"io"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	adminAPI "vaultkeeper/internal/app/server/api/http/admin"
	healthAPI "vaultkeeper/internal/app/server/api/http/health"
	"vaultkeeper/internal/app/server/api/http/middleware"
	"vaultkeeper/internal/app/server/api/http/middleware/auth"
	"vaultkeeper/internal/app/server/api/http/middleware/logger"
	recordAPI "vaultkeeper/internal/app/server/api/http/record"
	resetAPI "vaultkeeper/internal/app/server/api/http/reset"
	userAPI "vaultkeeper/internal/app/server/api/http/user"
	"vaultkeeper/internal/config"
	"vaultkeeper/internal/domain/record"
	"vaultkeeper/internal/domain/reset"
	"vaultkeeper/internal/domain/session"
	"vaultkeeper/internal/domain/transfer"
	"vaultkeeper/internal/domain/user"
	"vaultkeeper/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Reset  *resetAPI.Handler
	Admin  *adminAPI.Handler
	Record *recordAPI.Handler
}

// Services are the domain services behind the handlers.
type Services struct {
	Users    user.Servicer
	Sessions session.Servicer
	Resets   reset.Servicer
	Records  record.Servicer
	Transfer transfer.Servicer
}

// New builds the router with every operation registered through huma.
// resetOut receives reset links.
func New(storage *postgres.Storage, cfg *config.Config, resetOut io.Writer, log *slog.Logger) *chi.Mux {
	return NewWithServices(storage, NewServices(storage, cfg, resetOut, log), log)
}

func NewServices(storage *postgres.Storage, cfg *config.Config, resetOut io.Writer, log *slog.Logger) Services {
	hasher := user.NewHasher(cfg.Auth.HashIterations)
	validator := user.NewPasswordValidator()

	userRepo := postgres.NewUserRepository(storage, log)
	return Services{
		Users:    user.NewService(userRepo, validator, hasher, log),
		Sessions: session.NewService(postgres.NewSessionRepository(storage, log), cfg.Auth.SessionTTL, log),
		Resets: reset.NewService(postgres.NewResetRepository(storage, log), userRepo, validator, hasher,
			reset.NewWriterNotifier(resetOut),
			reset.Config{TTL: cfg.Auth.ResetTTL, LinkBase: cfg.Auth.ResetLinkBase}, log),
		Records:  record.NewService(postgres.NewRecordRepository(storage, log), log),
		Transfer: transfer.NewService(postgres.NewTransferRepository(storage, log), log),
	}
}

func NewWithServices(db healthAPI.Pinger, svc Services, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Vaultkeeper API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(db, svc, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Reset.SetupRoutes(API)
	h.Admin.SetupRoutes(API)
	h.Record.SetupRoutes(API)

	return mux
}

func handlers(db healthAPI.Pinger, svc Services, log *slog.Logger) *Handlers {
	authMW := auth.New(svc.Sessions, svc.Users, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(db, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	authed := middlewares.GetAllAndClear()
	userHandler := userAPI.NewHandler(svc.Users, svc.Sessions, log, public, authed)

	middlewares.Add(loggerMW.Middleware())
	resetHandler := resetAPI.NewHandler(svc.Resets, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	setup := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware(), authMW.RequireAdmin())
	adminHandler := adminAPI.NewHandler(svc.Users, svc.Transfer, log, setup, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	recordHandler := recordAPI.NewHandler(svc.Records, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Reset:  resetHandler,
		Admin:  adminHandler,
		Record: recordHandler,
	}
}
