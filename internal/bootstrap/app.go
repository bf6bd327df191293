package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/credentials"
	httpHandler "github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/handler/http"
	wsHandler "github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/handler/websocket"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/hub"
	memstate "github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/infra/state/memory"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/metrics"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/middleware"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/service"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired components of the relay.
type App struct {
	Config     *Config
	Log        *logrus.Logger
	Hub        *hub.Hub
	Service    *service.WhiteboardService
	Janitor    *worker.Janitor
	HttpServer *http.Server
}

// NewApp loads the configuration and wires every component.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewAppWithConfig(cfg), nil
}

// NewAppWithConfig wires every component from cfg.
func NewAppWithConfig(cfg *Config) *App {
	log := setupLogger(cfg)
	log.Info("Configuration loaded successfully")

	hasher := credentials.NewBcryptHasher(cfg.BcryptCost)
	hubInstance := hub.NewHub(hub.Options{
		MaxMessageSize: cfg.WSMaxMessageSize,
		SendBuffer:     cfg.WSSendBuffer,
	})
	svc := service.NewWhiteboardService(
		memstate.NewSessionRegistry(),
		memstate.NewRoomStore(),
		memstate.NewPrivateRoomDirectory(hasher),
		hasher,
		hubInstance,
		service.Config{
			DefaultMaxUsers:    cfg.DefaultMaxUsers,
			RoomIdleTTL:        cfg.RoomIdleTTL,
			PrivateRoomIdleTTL: cfg.PrivateRoomIdleTTL,
		},
	)
	log.Info("Session engine initialized")

	router := newRouter(cfg, log, hubInstance, svc)
	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Hub:        hubInstance,
		Service:    svc,
		Janitor:    worker.NewJanitor(svc, cfg.JanitorSchedule, log),
		HttpServer: httpServer,
	}
}

func setupLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	return log
}

func newRouter(cfg *Config, log *logrus.Logger, h *hub.Hub, svc *service.WhiteboardService) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	roomHandler := httpHandler.NewRoomHandler(svc)
	api := router.Group("/api")
	{
		api.GET("/rooms/:roomId", roomHandler.GetRoom)
		api.GET("/stats", roomHandler.Stats)
	}
	router.GET("/ws", wsHandler.NewWebSocketHandler(h, svc, cfg.CORSAllowedOrigin).HandleConnection)
	router.GET("/ping", httpHandler.Ping)
	return router
}

// Start launches the janitor and the HTTP server in the background.
func (a *App) Start() {
	if err := a.Janitor.Start(); err != nil {
		a.Log.WithError(err).Error("Janitor not started")
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown stops the janitor, drops every websocket and drains the HTTP server.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	a.Janitor.Stop()
	a.Hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}
	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs one line per request, leveled by status code.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  time.Since(startTime).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
