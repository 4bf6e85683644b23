package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/orderdesk/internal/config"
	"github.com/simp-lee/orderdesk/internal/middleware"
	"github.com/simp-lee/orderdesk/internal/module/orders"
	"github.com/simp-lee/orderdesk/web"
)

// App holds the process-wide application state and the HTTP engine.
type App struct {
	engine *gin.Engine
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// resolveWebFS returns the filesystem holding templates/ and static/: the
// source tree in debug mode, the embedded copy otherwise.
var resolveWebFS = func(debug bool) (fs.FS, error) {
	if debug {
		return resolveDebugWebFS()
	}
	return web.EmbeddedFS, nil
}

// blueprintFactories maps configured blueprint names to their constructors.
var blueprintFactories = map[string]func() Blueprint{
	orders.Name: func() Blueprint {
		return orders.NewBlueprint(orders.NewHandler())
	},
}

// New creates and wires a fully configured App from the given Config.
//
// cfg is validated first, which fills in defaults such as the orders mount,
// so configs built in code behave like ones read by config.Load. Any failure
// here is a startup failure.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes hot-reloaded templates and permissive CORS")
	}

	mounts, err := resolveMounts(cfg.Blueprints)
	if err != nil {
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	debug := cfg.Server.IsDebug()
	webFS, err := resolveWebFS(debug)
	if err != nil {
		return nil, fmt.Errorf("resolve web filesystem: %w", err)
	}

	renderer, err := NewTemplateRenderer(webFS, debug)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	staticFS, err := fs.Sub(webFS, "static")
	if err != nil {
		return nil, fmt.Errorf("create sub filesystem for static assets: %w", err)
	}

	pages := newErrorPages(renderer, log.Logger)

	handlers := []gin.HandlerFunc{
		middleware.RequestID(cfg.Server.TrustRequestID),
		middleware.Recovery(log.Logger, pages.Internal),
		middleware.Logger(log.Logger),
		pages.Handler(),
		middleware.CORS(resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS.AllowOrigins)),
	}
	if sh := cfg.Server.SecureHeaders; sh.Enabled {
		handlers = append(handlers, middleware.SecureHeaders(middleware.SecureConfig{
			FrameDeny:          sh.FrameDeny,
			ContentTypeNosniff: sh.ContentTypeNosniff,
			ReferrerPolicy:     sh.ReferrerPolicy,
		}))
	}
	engine.Use(handlers...)

	if err := RegisterRoutes(engine, &RouteDeps{
		Mounts:      mounts,
		StaticFS:    staticFS,
		CacheStatic: !debug,
		ErrorPages:  pages,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	for _, m := range mounts {
		log.Info("blueprint mounted",
			slog.String("blueprint", m.Blueprint.Name()),
			slog.String("prefix", config.NormalizePrefix(m.Prefix)),
		)
	}

	success = true
	return &App{
		engine: engine,
		logger: log,
		cfg:    cfg,
	}, nil
}

// Handler exposes the configured engine, mainly for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.engine
}

// resolveMounts builds one Mount per configured blueprint. A blueprint mounted
// under several prefixes shares a single instance.
func resolveMounts(cfgs []config.BlueprintConfig) ([]Mount, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("no blueprints configured")
	}

	built := make(map[string]Blueprint, len(cfgs))
	mounts := make([]Mount, 0, len(cfgs))
	for _, bc := range cfgs {
		bp, ok := built[bc.Name]
		if !ok {
			factory, known := blueprintFactories[bc.Name]
			if !known {
				return nil, fmt.Errorf("unknown blueprint %q", bc.Name)
			}
			bp = factory()
			built[bc.Name] = bp
		}
		mounts = append(mounts, Mount{Prefix: bc.URLPrefix, Blueprint: bp})
	}
	return mounts, nil
}

func resolveCORSConfig(mode string, configuredAllowOrigins []string) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	if len(configuredAllowOrigins) > 0 {
		corsConfig.AllowOrigins = configuredAllowOrigins
		return corsConfig
	}

	// Release mode without an allowlist denies cross-origin requests.
	if mode == gin.ReleaseMode {
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received,
// then shuts down gracefully with a 5-second deadline.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
