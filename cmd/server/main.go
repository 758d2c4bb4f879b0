package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"floodrelief/internal/admin"
	adminadapters "floodrelief/internal/admin/adapters"
	authhandler "floodrelief/internal/auth/handler"
	"floodrelief/internal/auth/password"
	authservice "floodrelief/internal/auth/service"
	"floodrelief/internal/auth/store/account"
	"floodrelief/internal/auth/store/session"
	jwttoken "floodrelief/internal/jwt_token"
	"floodrelief/internal/platform/config"
	"floodrelief/internal/platform/httpserver"
	"floodrelief/internal/platform/logger"
	"floodrelief/internal/platform/metrics"
	"floodrelief/internal/platform/postgres"
	redisclient "floodrelief/internal/platform/redis"
	"floodrelief/internal/ratelimit"
	recordhandler "floodrelief/internal/records/handler"
	recordservice "floodrelief/internal/records/service"
	recordstore "floodrelief/internal/records/store"
	audit "floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/audit/publisher"
	"floodrelief/pkg/platform/audit/publishers/kafka"
	auditmemory "floodrelief/pkg/platform/audit/store/memory"
	auditpostgres "floodrelief/pkg/platform/audit/store/postgres"
	authmw "floodrelief/pkg/platform/middleware/auth"
	"floodrelief/pkg/platform/middleware/metadata"
	"floodrelief/pkg/platform/middleware/requesttime"
)

const serviceName = "floodrelief"

// infra holds the connections opened at startup. Nil members are not
// configured and their in-memory fallback is used.
type infra struct {
	db    *sql.DB
	redis *redisclient.Client
	sink  *kafka.Sink
}

func (i *infra) close() {
	if i.sink != nil {
		i.sink.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

type application struct {
	auth    *authservice.Service
	records *recordservice.Service
	admin   *admin.Service
	audit   *publisher.Publisher
	tokens  *jwttoken.JWTService
	metrics *metrics.Metrics
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsingDevSigningKey() {
		log.Warn("using the development JWT signing key; set JWT_SIGNING_KEY in production")
	}

	inf, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer inf.close()

	app, err := buildApplication(ctx, cfg, inf, log)
	if err != nil {
		return err
	}
	defer app.audit.Close()

	srv := httpserver.New(cfg.Server.Addr, newRouter(cfg, app, inf, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting "+serviceName, "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	inf := &infra{}
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		inf.db = db
		log.Info("using postgres stores")
	} else {
		log.Warn("DATABASE_URL not set; accounts and records are kept in memory")
	}

	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		inf.close()
		return nil, err
	}
	if client != nil {
		inf.redis = client
		log.Info("using redis session store")
	}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := kafka.New(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			inf.close()
			return nil, err
		}
		inf.sink = sink
		if err := sink.EnsureTopic(ctx, int32(cfg.Audit.Partitions)); err != nil {
			inf.close()
			return nil, err
		}
		log.Info("publishing audit events to kafka", "topic", cfg.Audit.Topic)
	}
	return inf, nil
}

func buildApplication(ctx context.Context, cfg *config.Config, inf *infra, log *slog.Logger) (*application, error) {
	m := metrics.New(prometheus.DefaultRegisterer)

	pubOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
	}
	if inf.sink != nil {
		pubOpts = append(pubOpts, publisher.WithSink(inf.sink))
	}
	var trail audit.Store = auditmemory.NewInMemoryStore()
	if inf.db != nil {
		trail = auditpostgres.New(inf.db)
	}
	pub := publisher.NewPublisher(trail, pubOpts...)

	var (
		accounts authservice.AccountStore
		sessions authservice.SessionStore
		records  recordstore.TxStore
	)
	if inf.db != nil {
		accounts = account.NewPostgres(inf.db)
		records = recordstore.NewPostgres(inf.db)
	} else {
		accounts = account.NewInMemory()
		records = recordstore.NewInMemory()
	}
	if inf.redis != nil {
		sessions = session.NewRedis(inf.redis.Client, cfg.Auth.SessionTTL)
	} else {
		sessions = session.NewInMemory()
	}

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, serviceName)
	authSvc := authservice.New(accounts, sessions, tokens,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(pub),
		authservice.WithMetrics(m),
		authservice.WithHasher(password.NewHasher(cfg.Auth.PasswordIterations)),
		authservice.WithSessionTTL(cfg.Auth.SessionTTL),
		authservice.WithTracer(otel.Tracer(serviceName+"/auth")),
	)
	recordSvc := recordservice.New(records,
		recordservice.WithLogger(log),
		recordservice.WithAuditPublisher(pub),
		recordservice.WithMetrics(m),
		recordservice.WithTracer(otel.Tracer(serviceName+"/records")),
		recordservice.WithAnonymousSubmissions(cfg.Records.AllowAnonymousSubmissions),
	)
	adminSvc := admin.NewService(
		adminadapters.NewAccountAdapter(authSvc),
		adminadapters.NewRecordsAdapter(recordSvc),
		admin.WithLogger(log),
		admin.WithAuditLog(pub),
	)

	if cfg.Bootstrap.Enabled() {
		acct, err := authSvc.EnsureBootstrapAdmin(ctx, authservice.BootstrapAdmin{
			Login:    cfg.Bootstrap.Login,
			Password: cfg.Bootstrap.Password,
			Email:    cfg.Bootstrap.Email,
			Contact:  cfg.Bootstrap.Contact,
		})
		if err != nil {
			pub.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("bootstrap admin ready", "login", acct.Login)
	}

	return &application{
		auth:    authSvc,
		records: recordSvc,
		admin:   adminSvc,
		audit:   pub,
		tokens:  tokens,
		metrics: m,
	}, nil
}

func newRouter(cfg *config.Config, app *application, inf *infra, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(app.metrics.Middleware)
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", metadata.RequestIDHeader},
			ExposedHeaders:   []string{metadata.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(inf))

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(jwttoken.NewJWTServiceAdapter(app.tokens), app.auth, log))
		r.Group(func(r chi.Router) {
			if cfg.RateLimit.Enabled() {
				r.Use(newRateLimiter(cfg, inf, log).Limit("auth"))
			}
			authhandler.New(app.auth, log).Register(r)
		})
		recordhandler.New(app.records, log).Register(r)
		admin.NewHandler(app.admin, log).Register(r)
	})
	return r
}

// newRateLimiter shares counts through Redis when it is configured.
func newRateLimiter(cfg *config.Config, inf *infra, log *slog.Logger) *ratelimit.Middleware {
	var store ratelimit.Store = ratelimit.NewInMemory()
	if inf.redis != nil {
		store = ratelimit.NewRedis(inf.redis.Client)
	}
	return ratelimit.NewMiddleware(store, cfg.RateLimit.AuthRequests, cfg.RateLimit.Window, log)
}

// healthHandler pings whichever backends are configured.
func healthHandler(inf *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		body := "ok"
		if inf.db != nil {
			if err := inf.db.PingContext(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "postgres unavailable"
			}
		}
		if inf.redis != nil && status == http.StatusOK {
			if err := inf.redis.Health(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "redis unavailable"
			}
		}
		if inf.sink != nil && status == http.StatusOK {
			if err := inf.sink.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "kafka unavailable"
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
