package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mockview/internal/ai"
	aihandler "mockview/internal/ai/handler"
	"mockview/internal/interview/adapters"
	interviewhandler "mockview/internal/interview/handler"
	interviewmetrics "mockview/internal/interview/metrics"
	"mockview/internal/interview/service"
	jwttoken "mockview/internal/jwt_token"
	"mockview/internal/platform/config"
	"mockview/internal/platform/httpserver"
	"mockview/internal/platform/kafka"
	"mockview/internal/platform/logger"
	"mockview/internal/platform/metrics"
	"mockview/internal/platform/postgres"
	"mockview/internal/platform/redis"
	proctorhandler "mockview/internal/proctor/handler"
	proctormetrics "mockview/internal/proctor/metrics"
	"mockview/internal/proctor/session"
	httptransport "mockview/internal/transport/http"
	"mockview/pkg/platform/circuit"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := newRegistry()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("interview store: postgres")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		log.Info("snapshot store: redis")
	}

	kc, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kc != nil {
		defer kc.Close()
	}

	vertex, err := ai.NewVertexClient(ctx, cfg.VertexAI,
		ai.WithLogger(log),
		ai.WithBreaker(circuit.New("vertexai", circuit.WithFailureThreshold(5), circuit.WithOpenTimeout(30*time.Second))),
	)
	if err != nil {
		return err
	}
	if vertex != nil {
		defer vertex.Close()
	} else {
		log.Warn("vertex ai not configured; generation, rating and transcription are unavailable")
	}
	generator, transcriber := modelClients(vertex)

	pm := proctormetrics.New(reg)
	im := interviewmetrics.New(reg)
	events, runPublisher, err := newPublisher(ctx, kc, cfg.Kafka, pm, log)
	if err != nil {
		return err
	}

	stores := newInterviewStores(db)
	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(im),
	}
	if generator != nil {
		svcOpts = append(svcOpts, service.WithGenerator(generator))
	}
	interviews, err := service.New(stores.interviews, stores.answers, svcOpts...)
	if err != nil {
		return err
	}
	bridge := adapters.NewInterviews(interviews)

	// Sessions outlive the request that created them but not the process.
	sessionCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()
	manager, err := session.NewManager(sessionCtx, bridge,
		session.WithManagerLogger(log),
		session.WithSnapshotReader(newSnapshotStore(rc, cfg.Redis)),
		session.WithSessionOptions(
			session.WithConfig(sessionConfig(cfg.Proctor)),
			session.WithPublisher(events),
			session.WithMetrics(pm),
		),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Tokens:   jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience),
		Health:   healthChecks(db, rc, kc),
		API: []httptransport.Registrar{
			aihandler.New(transcriber, log),
			interviewhandler.New(interviews, im, log),
			proctorhandler.New(manager, bridge, transcriber, proctorhandler.Config{
				AllowClientMinutes: cfg.Proctor.AllowClientMinutes,
				MaxExamDuration:    cfg.Proctor.MaxExamDuration,
				SubmitTimeout:      cfg.Proctor.SubmitTimeout,
			}, log),
		},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	publisherCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()

	g, gctx := errgroup.WithContext(ctx)
	if runPublisher != nil {
		g.Go(func() error { return runPublisher(publisherCtx) })
	}
	g.Go(func() error {
		log.Info("starting mockview", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := shutdown(shutdownCtx, srv, manager, stopPublisher)
		log.Info("shutdown complete")
		return err
	})
	return g.Wait()
}

// shutdown abandons live sessions before draining HTTP: an event stream only
// returns once its session has ended. The publisher stops last, after the
// sessions have published their final events.
func shutdown(ctx context.Context, srv *http.Server, sessions *session.Manager, stopPublisher func()) error {
	var errs []error
	if err := sessions.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("session shutdown: %w", err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	stopPublisher()
	return errors.Join(errs...)
}
