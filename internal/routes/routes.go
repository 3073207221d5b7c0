package routes

import (
	"net/http"

	"github.com/templui/filesmanager/internal/app"
	"github.com/templui/filesmanager/internal/handler"
	"github.com/templui/filesmanager/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	status := handler.NewAppHandler(app.AppService)
	auth := handler.NewAuthHandler(app.AuthService)
	user := handler.NewUserHandler(app.UserService)
	file := handler.NewFileHandler(app.FileService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /status", status.Status)
	mux.HandleFunc("GET /stats", status.Stats)

	// Credential endpoints (rate limited)
	rateLimiter := middleware.RateLimit(app.RateLimiter)

	mux.HandleFunc("GET /connect", rateLimiter(auth.Connect))
	mux.HandleFunc("POST /users", rateLimiter(user.Register))

	// Public files are readable without a token
	mux.HandleFunc("GET /files/{id}/data", file.Data)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /disconnect", middleware.RequireAuth(auth.Disconnect))
	mux.HandleFunc("GET /users/me", middleware.RequireAuth(user.Me))

	// Files
	mux.HandleFunc("POST /files", middleware.RequireAuth(file.Create))
	mux.HandleFunc("GET /files", middleware.RequireAuth(file.List))
	mux.HandleFunc("GET /files/{id}", middleware.RequireAuth(file.Show))
	mux.HandleFunc("PUT /files/{id}/publish", middleware.RequireAuth(file.Publish))
	mux.HandleFunc("PUT /files/{id}/unpublish", middleware.RequireAuth(file.Unpublish))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging, // Innermost so it sees the route pattern set by the mux
	)

	return handler
}
