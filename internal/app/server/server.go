package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/attendance"
	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/billing"
	"messease/internal/domain/dashboard"
	"messease/internal/domain/estimation"
	"messease/internal/domain/feedback"
	"messease/internal/domain/leave"
	"messease/internal/domain/menu"
	"messease/internal/domain/users"
	"messease/internal/platform/config"
	cryptoutil "messease/internal/platform/crypto"
	"messease/internal/platform/db"
	"messease/internal/platform/jobs"
	"messease/internal/platform/metrics"
	"messease/internal/platform/storage"
	"messease/internal/transport/http/api"
	analyticshandler "messease/internal/transport/http/handlers/analytics"
	audithandler "messease/internal/transport/http/handlers/audit"
	authhandler "messease/internal/transport/http/handlers/auth"
	billinghandler "messease/internal/transport/http/handlers/billing"
	dashboardhandler "messease/internal/transport/http/handlers/dashboard"
	estimationhandler "messease/internal/transport/http/handlers/estimation"
	feedbackhandler "messease/internal/transport/http/handlers/feedback"
	leavehandler "messease/internal/transport/http/handlers/leave"
	menuhandler "messease/internal/transport/http/handlers/menu"
	usershandler "messease/internal/transport/http/handlers/users"
	"messease/internal/transport/http/middleware"
	"messease/migrations"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config config.Config
	DB     *db.Pool
	Jobs   *jobs.Service
	Router http.Handler
}

// New wires every service and handler against pool. Background jobs are not started.
func New(ctx context.Context, cfg config.Config, pool *db.Pool) (*App, error) {
	loc := cfg.Location()

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	var (
		requests    middleware.RequestRecorder
		estimations estimation.Observer
		runs        jobs.RunObserver
		runtime     analyticshandler.MetricsSource
	)
	if cfg.MetricsEnabled {
		collector := metrics.New()
		requests, estimations, runs, runtime = collector, collector, collector, collector
	}

	var photos feedback.PhotoStore
	photoOrigin := ""
	if cfg.StorageConfigured() {
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		photos = s3Client
		photoOrigin = s3Client.Origin()
	} else {
		slog.Info("review photo storage disabled, S3 settings incomplete")
	}

	perms := auth.StaticPermissions{}
	auditSvc := audit.New(pool)
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, crypto)
	usersSvc := users.NewService(users.NewStore(pool))
	leaveSvc := leave.NewService(leave.NewStore(pool))
	menuSvc := menu.NewService(menu.NewStore(pool), loc)
	billingSvc := billing.NewService(billing.NewStore(pool), loc)
	feedbackSvc := feedback.NewService(feedback.NewStore(pool), photos)

	projector := attendance.NewProjector(usersSvc, leaveSvc, loc, cfg.DefaultTotalUsers)
	snapshots := attendance.NewSnapshotStore(pool)
	jobsSvc := jobs.New(pool, cfg.SnapshotInterval, projector, snapshots, runs)

	gemini := estimation.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.EstimationTimeout)
	if !gemini.Configured() {
		slog.Warn("GEMINI_API_KEY not set, estimation runs will fail with estimation_not_configured")
	}
	estimationSvc := estimation.NewService(projector, menuSvc, gemini, estimations)
	dashboardSvc := dashboard.NewService(projector, billingSvc, leaveSvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(requests))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production", photoOrigin))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(authSvc))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, cfg.EstimationRateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if runtime != nil {
		router.With(middleware.RequireSession, middleware.RequirePermission(auth.PermSystemAdmin, perms)).
			Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, runtime.Snapshot(), middleware.GetRequestID(r.Context()))
			})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, auditSvc, estimationSvc).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Use(middleware.Idempotency(middleware.NewIdempotencyStore(pool)))
			dashboardhandler.NewHandler(dashboardSvc, perms).RegisterRoutes(r)
			leavehandler.NewHandler(leaveSvc, perms, auditSvc).RegisterRoutes(r)
			menuhandler.NewHandler(menuSvc, perms, auditSvc).RegisterRoutes(r)
			estimationhandler.NewHandler(estimationSvc, perms, auditSvc).RegisterRoutes(r)
			usershandler.NewHandler(usersSvc, perms, auditSvc).RegisterRoutes(r)
			billinghandler.NewHandler(billingSvc, perms).RegisterRoutes(r)
			feedbackhandler.NewHandler(feedbackSvc, perms, auditSvc).RegisterRoutes(r)
			analyticshandler.NewHandler(snapshots, jobsSvc, runtime, perms).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{Config: cfg, DB: pool, Jobs: jobsSvc, Router: router}, nil
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app, err := New(ctx, cfg, pool)
	if err != nil {
		log.Fatalf("server setup failed: %v", err)
	}
	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("MessEase server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
