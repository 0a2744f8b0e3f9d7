package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	authhandler "foodgram/internal/auth/handler"
	authservice "foodgram/internal/auth/service"
	"foodgram/internal/auth/store/revocation"
	cataloghandler "foodgram/internal/catalog/handler"
	catalogservice "foodgram/internal/catalog/service"
	catalogstore "foodgram/internal/catalog/store"
	jwttoken "foodgram/internal/jwt_token"
	"foodgram/internal/media"
	"foodgram/internal/platform/config"
	"foodgram/internal/platform/httpserver"
	"foodgram/internal/platform/logger"
	"foodgram/internal/platform/metrics"
	"foodgram/internal/platform/postgres"
	"foodgram/internal/platform/redis"
	"foodgram/internal/recipes/adapters"
	recipehandler "foodgram/internal/recipes/handler"
	recipeservice "foodgram/internal/recipes/service"
	recipestore "foodgram/internal/recipes/store"
	httptransport "foodgram/internal/transport/http"
	userhandler "foodgram/internal/users/handler"
	userservice "foodgram/internal/users/service"
	userstore "foodgram/internal/users/store"
	"foodgram/pkg/platform/events"
)

const trlPurgeInterval = 10 * time.Minute

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type recipeStore interface {
	recipeservice.Store
	catalogservice.IngredientUsage
}

// revocationList is implemented by every token revocation backend.
type revocationList interface {
	authservice.TokenRevocationList
	PurgeExpired(ctx context.Context) (int, error)
}

type stores struct {
	users   userservice.Store
	auth    authservice.UserStore
	catalog catalogservice.Store
	recipes recipeStore
	trl     revocationList
	checks  []httptransport.HealthCheck
	closers []func() error
}

func (s *stores) close(log *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn("failed to close resource", "error", err)
		}
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(log)

	publisher, err := newPublisher(ctx, cfg.Events, log)
	if err != nil {
		return err
	}
	if kp, ok := publisher.(*events.KafkaPublisher); ok {
		defer kp.Close()
		st.checks = append(st.checks, httptransport.HealthCheck{Name: "kafka", Check: kp.Ping})
	}
	emitter := events.NewEmitter(publisher,
		events.WithLogger(log),
		events.WithRecorder(m),
		events.WithBufferSize(cfg.Events.BufferSize),
	)

	imageStore, mediaHandler, mediaPath, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}
	if s3, ok := imageStore.(*media.S3Store); ok {
		st.checks = append(st.checks, httptransport.HealthCheck{Name: "s3", Check: s3.Ping})
	}
	images := media.NewImages(imageStore, media.WithLogger(log))

	catalogSvc := catalogservice.New(st.catalog,
		catalogservice.WithLogger(log),
		catalogservice.WithEventEmitter(emitter),
		catalogservice.WithIngredientUsage(st.recipes),
	)
	summaries := adapters.NewRecipeSummaries()
	userSvc := userservice.New(st.users, summaries,
		userservice.WithLogger(log),
		userservice.WithMetrics(m),
		userservice.WithEventEmitter(emitter),
	)
	recipeSvc := recipeservice.New(st.recipes, catalogSvc, adapters.NewAuthorResolver(userSvc), images,
		recipeservice.WithLogger(log),
		recipeservice.WithMetrics(m),
		recipeservice.WithEventEmitter(emitter),
	)
	summaries.Bind(recipeSvc)

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	authSvc := authservice.New(st.auth, tokens, st.trl,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithEventEmitter(emitter),
		authservice.WithTokenTTL(cfg.Auth.TokenTTL),
	)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:        log,
		Metrics:       m,
		Gatherer:      prometheus.DefaultGatherer,
		Authenticator: authSvc,
		HTTP:          cfg.HTTP,
		Checks:        st.checks,
		Media:         mediaHandler,
		MediaPath:     mediaPath,
		API: []httptransport.Routes{
			authhandler.New(authSvc, log, cfg.HTTP.LoginLimitPerMin),
			userhandler.New(userSvc, log, cfg.PageSize),
			cataloghandler.New(catalogSvc, log),
			recipehandler.New(recipeSvc, log, cfg.PageSize),
		},
	})
	srv := httpserver.New(cfg.Addr, router, cfg.HTTP.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting foodgram", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return emitter.Run(gctx)
	})
	g.Go(func() error {
		purgeRevokedTokens(gctx, st.trl, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openStores selects Postgres when a DSN is configured and in-memory stores
// otherwise. Revoked tokens go to Redis when available so every instance sees
// a logout.
func openStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, error) {
	st := &stores{}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		st.checks = append(st.checks, httptransport.HealthCheck{Name: "db", Check: db.PingContext})
		if cfg.Database.ApplySchema {
			if err := postgres.ApplySchema(ctx, db); err != nil {
				st.close(log)
				return nil, err
			}
		}
		users := userstore.NewPostgres(db)
		st.users, st.auth = users, users
		st.catalog = catalogstore.NewPostgres(db)
		st.recipes = recipestore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		users := userstore.NewInMemory()
		st.users, st.auth = users, users
		st.catalog = catalogstore.NewInMemory()
		st.recipes = recipestore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		st.close(log)
		return nil, err
	}
	switch {
	case rc != nil:
		st.closers = append(st.closers, rc.Close)
		st.checks = append(st.checks, httptransport.HealthCheck{Name: "redis", Check: rc.Health})
		st.trl = revocation.NewRedisTRL(rc.Client, revocation.WithKeyPrefix(rc.Key("trl", "jti")+":"))
	case db != nil:
		st.trl = revocation.NewPostgresTRL(db)
	default:
		st.trl = revocation.NewInMemoryTRL()
	}
	return st, nil
}

func newPublisher(ctx context.Context, cfg config.EventsConfig, log *slog.Logger) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.NewLogPublisher(log), nil
	}
	kp, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	if err := kp.EnsureTopic(ctx, 1, 1); err != nil {
		log.Warn("could not ensure event topic", "topic", cfg.Topic, "error", err)
	}
	return kp, nil
}

// newImageStore returns the image backend plus, for local storage, the handler
// and path the router serves it under.
func newImageStore(ctx context.Context, cfg config.Server) (media.Store, http.Handler, string, error) {
	if cfg.Media.UseS3() {
		s3, err := media.NewS3Store(ctx, media.S3Config{
			Bucket:    cfg.Media.S3Bucket,
			Endpoint:  cfg.Media.S3Endpoint,
			Region:    cfg.Media.S3Region,
			AccessKey: cfg.Media.S3AccessKey,
			SecretKey: cfg.Media.S3SecretKey,
			PublicURL: cfg.Media.S3PublicURL,
		})
		return s3, nil, "", err
	}

	baseURL := cfg.Media.BaseURL
	if !strings.Contains(baseURL, "://") {
		baseURL = cfg.PublicBaseURL + "/" + strings.Trim(baseURL, "/")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil, "", fmt.Errorf("parse MEDIA_BASE_URL: %w", err)
	}
	local, err := media.NewLocalStore(cfg.Media.Root, baseURL)
	if err != nil {
		return nil, nil, "", err
	}
	return local, local.Handler(), strings.TrimRight(u.Path, "/"), nil
}

// purgeRevokedTokens drops expired revocations until ctx is cancelled.
func purgeRevokedTokens(ctx context.Context, trl revocationList, log *slog.Logger) {
	ticker := time.NewTicker(trlPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := trl.PurgeExpired(ctx)
			if err != nil {
				log.WarnContext(ctx, "failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged revoked tokens", "count", n)
			}
		}
	}
}
