package application

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/functest-config/internal/api"
	"github.com/eugenenazirov/functest-config/internal/config"
)

// ServerConfig holds the settings of the HTTP endpoint that publishes the table.
type ServerConfig struct {
	Addr                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// DefaultServerConfig returns the settings used when no flags are given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:                 ":8080",
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         25,
		RateLimitBurst:       50,
	}
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cfg     *config.Config
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New wires the handler, router and server for cfg.
func New(cfg *config.Config, serverCfg ServerConfig, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("configuration must not be nil")
	}

	handler := api.NewHandler(cfg)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(serverCfg.EnableRequestLogging),
		api.WithRateLimit(serverCfg.RateLimitRPS, serverCfg.RateLimitBurst),
	)

	return &App{
		cfg:     cfg,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(serverCfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler routes /api/ traffic to apiHandler and answers 404 elsewhere.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided settings.
func NewServer(serverCfg ServerConfig, handler http.Handler) *http.Server {
	addr := serverCfg.Addr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout,
		WriteTimeout:      serverCfg.WriteTimeout,
		IdleTimeout:       serverCfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("serving configuration",
			zap.String("addr", a.server.Addr),
			zap.String("instance", a.cfg.InstanceLDAPURL()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
