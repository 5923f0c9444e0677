package http

import (
	"net/http"

	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/delivery/http/handler"
	"rescue-id/internal/delivery/http/middleware"
	"rescue-id/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	accountHandler    *handler.AccountHandler
	emergencyHandler  *handler.EmergencyHandler
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
	storageDriver     string
}

func NewRouter(
	accountHandler *handler.AccountHandler,
	emergencyHandler *handler.EmergencyHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	storageDriver string,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		accountHandler:    accountHandler,
		emergencyHandler:  emergencyHandler,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
		loggingMiddleware: loggingMiddleware,
		storageDriver:     storageDriver,
	}
}

func (r *Router) Setup() http.Handler {
	r.router.NotFoundHandler = http.HandlerFunc(notFound)
	r.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Health check
	r.router.HandleFunc("/api/health", r.healthCheck).Methods(http.MethodGet)

	// Account routes (public)
	r.router.HandleFunc("/api/signup", r.accountHandler.Signup).Methods(http.MethodPost)
	r.router.HandleFunc("/api/signin", r.accountHandler.Signin).Methods(http.MethodPost)

	// Account routes (protected)
	r.router.Handle("/api/account/logins", r.authMiddleware.Authenticate(http.HandlerFunc(r.accountHandler.LoginHistory))).Methods(http.MethodGet)

	// Emergency profiles; reads stay public for first responders
	r.router.Handle("/api/emergency", r.authMiddleware.OptionalAuthenticate(http.HandlerFunc(r.emergencyHandler.CreateProfile))).Methods(http.MethodPost)
	r.router.HandleFunc("/api/emergency", r.emergencyHandler.GetProfile).Methods(http.MethodGet)
	r.router.HandleFunc("/api/emergency/{id}", r.emergencyHandler.GetProfile).Methods(http.MethodGet)
	r.router.HandleFunc("/api/generate-qr", r.emergencyHandler.GenerateQR).Methods(http.MethodPost)

	// CORS wraps the router so preflight and 405 responses carry the headers too
	var h http.Handler = r.corsMiddleware.Handle(r.router)
	h = r.loggingMiddleware.Recover(h)
	return r.loggingMiddleware.Handle(h)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, dto.HealthResponse{
		Status:  "ok",
		Storage: r.storageDriver,
	})
}

func methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	response.MethodNotAllowed(w)
}

func notFound(w http.ResponseWriter, req *http.Request) {
	response.NotFound(w, "Not found")
}
