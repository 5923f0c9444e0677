package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rescue-id/config"
	deliveryHttp "rescue-id/internal/delivery/http"
	"rescue-id/internal/delivery/http/handler"
	"rescue-id/internal/delivery/http/middleware"
	"rescue-id/internal/domain/repository"
	"rescue-id/internal/service"
	"rescue-id/internal/usecase"
	"rescue-id/pkg/idgen"
	"rescue-id/pkg/jwt"
	"rescue-id/pkg/validator"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config *config.Config
	Store  repository.Store
	Server *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	configureLogger(cfg.Log)
	logrus.Info("Configuration loaded successfully")

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = randomSecret()
		logrus.Warn("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
	}

	log := logrus.StandardLogger()

	// Initialize storage
	store, err := openStore(context.Background(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	app.Store = store
	logrus.WithField("driver", cfg.Storage.Driver).Info("Storage ready")

	// Initialize all layers
	app.Server = initializeServer(cfg, store, log)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

func configureLogger(cfg config.LogConfig) {
	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, keeping %s", cfg.Level, logrus.GetLevel())
		return
	}
	logrus.SetLevel(level)
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, store repository.Store, log *logrus.Logger) *http.Server {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize services
	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	loginHistoryService := service.NewLoginHistoryService(log, store.LoginHistory(), cfg.Auth.LoginHistoryEnabled, cfg.Auth.LoginHistoryLimit)
	ids := idgen.New(cfg.Profile.IDSuffixLength)

	// Initialize usecases
	accountUsecase := usecase.NewAccountUsecase(log, store.Accounts(), hasher, loginHistoryService, jwtService, customValidator)
	profileUsecase := usecase.NewEmergencyProfileUsecase(log, store.Profiles(), ids, customValidator, cfg.Profile, cfg.QR)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUsecase)
	emergencyHandler := handler.NewEmergencyHandler(profileUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	corsMiddleware := middleware.NewCORSMiddleware()
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(accountHandler, emergencyHandler, authMiddleware, corsMiddleware, loggingMiddleware, cfg.Storage.Driver)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close(ctx)

	logrus.Info("Server shutdown complete")
}

// Close releases the storage backend and its connections
func (app *App) Close(ctx context.Context) {
	if app.Store == nil {
		return
	}
	if err := app.Store.Close(ctx); err != nil {
		logrus.Errorf("Failed to close storage: %v", err)
	}
}
