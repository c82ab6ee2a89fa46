package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/iqengi/site/internal/catalog"
	"github.com/iqengi/site/internal/config"
	currencysvc "github.com/iqengi/site/internal/currency"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/graphql"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/module/blog"
	"github.com/iqengi/site/internal/module/contact"
	"github.com/iqengi/site/internal/module/course"
	currencymod "github.com/iqengi/site/internal/module/currency"
	"github.com/iqengi/site/internal/module/newsletter"
	"github.com/iqengi/site/internal/module/preference"
	"github.com/iqengi/site/internal/module/site"
	"github.com/iqengi/site/internal/seo"
	"github.com/iqengi/site/web"
)

const (
	siteName = "IqEngi"
	// brotli quality for dynamic responses; 11 is too slow per request.
	compressionLevel = 5
)

// worker is a background loop that runs until its context is cancelled.
type worker struct {
	name string
	run  func(ctx context.Context) error
}

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine   *gin.Engine
	db       *gorm.DB
	redis    *redis.Client
	logger   *logger.Logger
	cfg      *config.Config
	currency currencysvc.Service
	workers  []worker
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
		// Event streams stay open; their keep-alives bound idle time instead.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the preference database, the optional Redis client,
// the backend clients, every module, middleware, template rendering and
// routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup database. The preference table is the only schema and is
	// migrated on every start.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDB(db)
	}()
	if err := db.AutoMigrate(&domain.Preference{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	// 3. Optional Redis for the lookup cache and cross-instance broadcast.
	rdb, err := setupRedis(cfg.Redis, log.Logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if success || rdb == nil {
			return
		}
		_ = rdb.Close()
	}()

	a := &App{db: db, redis: rdb, logger: log, cfg: cfg}

	// 4. Manual dependency injection: repository → service → handler.
	prefRepo := preference.NewPreferenceRepository(db)
	prefSvc := preference.NewPreferenceService(prefRepo, log.Logger)

	var lookup currencysvc.Lookup = currencysvc.NewIPAPILookup(cfg.Currency.LookupURL, &http.Client{})
	if rdb != nil {
		lookup = currencysvc.NewCachedLookup(rdb, lookup, config.Duration(cfg.Currency.CacheTTL, 24*time.Hour), log.Logger)
	}
	detector := currencysvc.NewDetector(lookup, currencysvc.DetectorConfig{
		Supported:   cfg.Currency.Supported,
		Default:     cfg.Currency.Default,
		Timeout:     config.Duration(cfg.Currency.LookupTimeout, 5*time.Second),
		DevCurrency: cfg.Currency.DevCurrency,
	})
	bus := currencysvc.NewBus()
	var broker currencysvc.Broker = bus
	if rdb != nil {
		rb := currencysvc.NewRedisBroker(rdb, bus, log.Logger)
		broker = rb
		a.workers = append(a.workers, worker{name: "currency relay", run: rb.Run})
	}
	currencySvc := currencysvc.NewService(prefRepo, detector, broker, log.Logger)
	a.currency = currencySvc

	gql := graphql.NewClient(cfg.GraphQL.Endpoint, config.Duration(cfg.GraphQL.Timeout, 10*time.Second),
		graphql.WithRetry(graphql.RetryConfig{
			MaxAttempts: cfg.GraphQL.MaxAttempts,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		}),
		graphql.WithLogger(log.Logger),
	)
	courses := graphql.NewCourses(gql)

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, 10*time.Minute)
		a.workers = append(a.workers, worker{name: "rate limiter sweep", run: func(ctx context.Context) error {
			limiter.Run(ctx)
			return nil
		}})
	}

	seoSite := seo.NewSite(siteName, cfg.Server.SiteURL)

	courseSvc := course.NewCourseService(courses, catalog.Config{
		InitialLimit: cfg.Catalog.InitialLimit,
		BatchSize:    cfg.Catalog.BatchSize,
		PageSize:     cfg.Catalog.PageSize,
	}, log.Logger)

	contactSvc := contact.NewContactService(
		contact.NewTurnstileVerifier(cfg.Contact.TurnstileVerifyURL, cfg.Contact.TurnstileSecret, nil),
		newMailer(cfg.Contact),
		contact.ServiceConfig{From: cfg.Contact.From, Recipient: cfg.Contact.Recipient},
		log.Logger,
	)
	if !contactSvc.Configured() {
		log.Warn("contact.resend_api_key is empty; the contact form will answer 500")
	}

	newsletterSvc := newsletter.NewNewsletterService(graphql.NewNewsletter(gql),
		domain.NewsletterSource(cfg.Newsletter.Source), log.Logger)

	blogFS, err := resolveBlogFS(cfg.Blog.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve blog content: %w", err)
	}
	blogSvc, err := blog.NewBlogService(blogFS, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("load blog posts: %w", err)
	}

	checks := []site.HealthCheck{{Name: "database", Check: func(ctx context.Context) error {
		return config.PingDatabase(ctx, db, time.Second)
	}}}
	if rdb != nil {
		checks = append(checks, site.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	siteSvc := site.NewSiteService(courseSvc, courseSvc, blogSvc, seoSite, site.Config{
		FeaturedLimit:   cfg.Catalog.FeaturedLimit,
		SitemapCurrency: cfg.Currency.Default,
	}, log.Logger)

	modules := []Module{
		site.NewModule(
			site.NewSiteHandler(siteSvc, seoSite, checks...),
			site.NewSitePageHandler(siteSvc, currencySvc, seoSite),
		),
		course.NewModule(
			course.NewCourseHandler(courseSvc, currencySvc),
			course.NewCoursePageHandler(courseSvc, currencySvc, broker, prefSvc, seoSite, course.PageOptions{
				PageSizes:       cfg.Catalog.PageSizeOptions,
				DefaultPageSize: cfg.Catalog.PageSize,
			}),
		),
		currencymod.NewModule(
			currencymod.NewCurrencyHandler(currencySvc, broker),
			currencymod.NewCurrencyPageHandler(currencySvc),
		),
		preference.NewModule(
			preference.NewPreferenceHandler(prefSvc),
			preference.NewPreferencePageHandler(prefSvc),
		),
		contact.NewModule(
			contact.NewContactHandler(contactSvc),
			contact.NewContactPageHandler(contactSvc, contact.PageOptions{
				SiteKey:    cfg.Contact.TurnstileSiteKey,
				ResetAfter: config.Duration(cfg.Contact.ResetAfter, 5*time.Second),
			}),
			limiter,
		),
		newsletter.NewModule(
			newsletter.NewNewsletterHandler(newsletterSvc),
			newsletter.NewNewsletterPageHandler(newsletterSvc, config.Duration(cfg.Newsletter.ResetAfter, 5*time.Second)),
			limiter,
		),
		blog.NewModule(
			blog.NewBlogHandler(blogSvc),
			blog.NewBlogPageHandler(blogSvc, seoSite),
		),
	}

	// 5. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	// In release mode an empty allowlist denies cross-origin API calls.
	corsConfig := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.Compress(compressionLevel),
		middleware.CORSWithConfig(corsConfig),
		middleware.Visitor(strings.HasPrefix(cfg.Server.SiteURL, "https://")),
	)

	// 6. Determine filesystem mode and set up template renderer.
	var fsys fs.FS
	if cfg.Server.Mode == "debug" {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 7. Resolve CSRF secret.
	csrfSecret := cfg.Server.CSRFSecret
	if isPlaceholderCSRFSecret(csrfSecret) {
		if cfg.Server.Mode == gin.ReleaseMode {
			return nil, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		csrfSecret = hex.EncodeToString(b)
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 8. Register all routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		Theme:      prefSvc,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	a.engine = engine
	success = true
	return a, nil
}

// setupRedis connects to Redis when enabled. An unreachable server is
// logged and the app falls back to in-process delivery and uncached
// lookups.
func setupRedis(cfg config.RedisConfig, log *slog.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis.url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, continuing without it",
			slog.String("addr", opts.Addr),
			slog.String("error", err.Error()),
		)
		_ = client.Close()
		return nil, nil
	}
	log.Info("redis connected", slog.String("addr", opts.Addr))
	return client, nil
}

// newMailer returns nil when no provider key is configured so the contact
// service reports itself as unconfigured.
func newMailer(cfg config.ContactConfig) contact.Mailer {
	if cfg.ResendAPIKey == "" {
		return nil
	}
	return contact.NewResendMailer(cfg.ResendURL, cfg.ResendAPIKey, nil)
}

// resolveBlogFS returns dir when set and the embedded posts otherwise.
func resolveBlogFS(dir string) (fs.FS, error) {
	if dir != "" {
		stat, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("stat blog.content_dir %q: %w", dir, err)
		}
		if !stat.IsDir() {
			return nil, fmt.Errorf("blog.content_dir %q is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(web.EmbeddedFS, "content/blog")
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env", "change-me-in-production":
		return true
	default:
		return false
	}
}

func resolveCORSConfig(mode string, c config.CORSConfig) middleware.CORSConfig {
	out := middleware.DefaultCORSConfig()
	if len(c.AllowMethods) > 0 {
		out.AllowMethods = c.AllowMethods
	}
	if len(c.AllowHeaders) > 0 {
		out.AllowHeaders = c.AllowHeaders
	}
	if d, err := time.ParseDuration(c.MaxAge); err == nil && d > 0 {
		out.MaxAge = d
	}
	out.AllowCredentials = c.AllowCredentials

	switch {
	case len(c.AllowOrigins) > 0:
		out.AllowOrigins = c.AllowOrigins
	case mode == gin.ReleaseMode:
		out.AllowOrigins = []string{}
	}
	return out
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
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

// Run starts the HTTP server and the background workers, then blocks until
// a shutdown signal is received. Shutdown gives in-flight requests five
// seconds, stops the workers, waits for pending currency detections and
// closes Redis, the database and the logger.
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

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	g, workerCtx := errgroup.WithContext(workerCtx)
	for _, w := range a.workers {
		g.Go(func() error {
			if err := w.run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.log().Error("background worker stopped", slog.String("worker", w.name), slog.Any("error", err))
			}
			return nil
		})
	}

	// Start HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		a.log().Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		a.log().Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		// Graceful shutdown with 5-second deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log().Error("server shutdown error", slog.Any("error", err))
		}
	}

	cancelWorkers()
	_ = g.Wait()
	a.log().Info("server stopped")

	if err := a.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}
	return runErr
}

// Close waits for pending currency detections, then releases Redis, the
// database and the logger. Run calls it on shutdown.
func (a *App) Close() error {
	if a.currency != nil {
		a.currency.Wait()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log().Error("redis close error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		closeDB(a.db)
		a.log().Info("database connection closed")
	}

	if a.logger != nil {
		return a.logger.Close()
	}
	return nil
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger.Logger
	}
	return slog.Default()
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("database close error", slog.Any("error", err))
	}
}
