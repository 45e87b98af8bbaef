package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/session"
	"github.com/erazemk/oprema/internal/stream"
	"github.com/erazemk/oprema/internal/syncer"
)

// Deps are the services the API is built on.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Config    *config.Config
	Assets    *lifecycle.Service
	Sync      *syncer.Engine
	Sessions  *session.Registry
	Hub       *stream.Hub
	Pusher    *export.Pusher
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Config: d.Config, Sessions: d.Sessions}
	assetsHandler := &AssetsHandler{Assets: d.Assets, DB: d.DB, Config: d.Config}
	bulkHandler := &BulkHandler{Assets: d.Assets}
	viewHandler := &ViewHandler{Assets: d.Assets}
	syncHandler := &SyncHandler{Engine: d.Sync}
	exportHandler := &ExportHandler{Assets: d.Assets, DB: d.DB, Pusher: d.Pusher}
	auditHandler := &AuditHandler{Assets: d.Assets}
	settingsHandler := &SettingsHandler{DB: d.DB}
	usersHandler := &UsersHandler{DB: d.DB, Config: d.Config}

	authMW := AuthMiddleware(d.JWTSecret, d.DB, d.Config.Auth.AllowedDomain, d.Sessions)
	requireAdmin := RequireRole(model.RoleAdmin)
	loginLimiter := NewRateLimiter(rate.Every(6*time.Second), 10, 10*time.Minute)

	// Public: login.
	mux.Handle("POST /api/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))

	// Assets: read (all roles), write (admin).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Update))))
	mux.Handle("DELETE /api/assets/{id}", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Delete))))
	mux.Handle("GET /api/assets/{id}/history", authMW(http.HandlerFunc(assetsHandler.History)))
	mux.Handle("POST /api/assets/{id}/assign", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Assign))))
	mux.Handle("POST /api/assets/{id}/return", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Return))))
	mux.Handle("POST /api/assets/{id}/change-owner", authMW(requireAdmin(http.HandlerFunc(assetsHandler.ChangeOwner))))
	mux.Handle("PUT /api/assets/{id}/image", authMW(requireAdmin(http.HandlerFunc(assetsHandler.UploadImage))))
	mux.Handle("GET /api/assets/{id}/image", authMW(http.HandlerFunc(assetsHandler.GetImage)))
	mux.Handle("GET /api/assets/{id}/handover", authMW(http.HandlerFunc(assetsHandler.Handover)))

	// Bulk operations (admin).
	mux.Handle("POST /api/bulk/edit", authMW(requireAdmin(http.HandlerFunc(bulkHandler.Edit))))
	mux.Handle("POST /api/bulk/status", authMW(requireAdmin(http.HandlerFunc(bulkHandler.Status))))
	mux.Handle("POST /api/bulk/delete", authMW(requireAdmin(http.HandlerFunc(bulkHandler.Delete))))

	// Per-session view state.
	mux.Handle("GET /api/view", authMW(http.HandlerFunc(viewHandler.Get)))
	mux.Handle("PUT /api/view/filter", authMW(http.HandlerFunc(viewHandler.SetFilter)))
	mux.Handle("DELETE /api/view/filter", authMW(http.HandlerFunc(viewHandler.ClearFilter)))
	mux.Handle("PUT /api/view/page", authMW(http.HandlerFunc(viewHandler.SetPage)))
	mux.Handle("PUT /api/view/selection", authMW(http.HandlerFunc(viewHandler.SetSelection)))

	// Employee directory lookups.
	mux.Handle("GET /api/employees/{code}", authMW(http.HandlerFunc(assetsHandler.Employee)))

	// Sheet sync (admin).
	mux.Handle("POST /api/sync", authMW(requireAdmin(http.HandlerFunc(syncHandler.Sync))))
	mux.Handle("POST /api/sync/directory", authMW(requireAdmin(http.HandlerFunc(syncHandler.Directory))))

	// Exports.
	mux.Handle("GET /api/export/csv", authMW(http.HandlerFunc(exportHandler.CSV)))
	mux.Handle("POST /api/export/sheet", authMW(requireAdmin(http.HandlerFunc(exportHandler.Sheet))))

	// Audit log: read (all roles), maintenance (admin).
	mux.Handle("GET /api/audit", authMW(http.HandlerFunc(auditHandler.List)))
	mux.Handle("DELETE /api/audit/{id}", authMW(requireAdmin(http.HandlerFunc(auditHandler.Delete))))
	mux.Handle("POST /api/audit/purge", authMW(requireAdmin(http.HandlerFunc(auditHandler.Purge))))

	// Settings (admin).
	mux.Handle("GET /api/settings", authMW(requireAdmin(http.HandlerFunc(settingsHandler.List))))
	mux.Handle("PUT /api/settings", authMW(requireAdmin(http.HandlerFunc(settingsHandler.Update))))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Change stream.
	if d.Hub != nil {
		mux.Handle("GET /api/stream", authMW(d.Hub))
	}

	return mux
}
