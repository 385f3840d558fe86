package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"mockview/internal/ai"
	"mockview/internal/interview/service"
	"mockview/internal/interview/store"
	"mockview/internal/platform/config"
	"mockview/internal/platform/kafka"
	"mockview/internal/platform/postgres"
	"mockview/internal/platform/redis"
	proctormetrics "mockview/internal/proctor/metrics"
	"mockview/internal/proctor/ports"
	"mockview/internal/proctor/publisher"
	"mockview/internal/proctor/session"
	proctorstore "mockview/internal/proctor/store"
	httptransport "mockview/internal/transport/http"
)

// sessionConfig maps the file/env tunables onto the engine. Zero values keep
// the engine defaults.
func sessionConfig(p config.Proctor) session.Config {
	cfg := session.DefaultConfig()
	if p.InitialBudget > 0 {
		cfg.InitialBudget = p.InitialBudget
	}
	if p.Cooldown > 0 {
		cfg.Cooldown = p.Cooldown
	}
	if p.FullscreenGrace > 0 {
		cfg.Focus.GracePeriod = p.FullscreenGrace
	}
	if p.FullscreenPoll > 0 {
		cfg.Focus.PollInterval = p.FullscreenPoll
	}
	if p.ExamDuration > 0 {
		cfg.ExamDuration = p.ExamDuration
	}
	if p.DetectionInterval > 0 {
		cfg.Gaze.DetectionInterval = p.DetectionInterval
	}
	if p.CalibrationFrames > 0 {
		cfg.Gaze.CalibrationFrames = p.CalibrationFrames
	}
	if p.SubmitTimeout > 0 {
		cfg.SubmitTimeout = p.SubmitTimeout
	}
	return cfg
}

type interviewStores struct {
	interviews service.InterviewStore
	answers    service.AnswerStore
}

func newInterviewStores(db *postgres.DB) interviewStores {
	if db == nil {
		return interviewStores{
			interviews: store.NewInMemoryInterviewStore(),
			answers:    store.NewInMemoryAnswerStore(),
		}
	}
	pg := store.NewPostgresStore(db.SQL)
	return interviewStores{interviews: pg, answers: pg}
}

func newSnapshotStore(rc *redis.Client, cfg config.Redis) session.SnapshotStore {
	if rc == nil {
		return proctorstore.NewInMemorySnapshotStore()
	}
	return proctorstore.NewRedisSnapshotStore(rc.Client, cfg.SnapshotTTL)
}

// newPublisher prefers Kafka and falls back to structured logs. The returned
// run func drives the flush worker and is nil for the log publisher.
func newPublisher(ctx context.Context, kc *kafka.Client, cfg config.Kafka, m *proctormetrics.Metrics, logger *slog.Logger) (ports.EventPublisher, func(context.Context) error, error) {
	if kc == nil {
		return publisher.NewLog(logger), nil, nil
	}
	if err := publisher.EnsureTopic(ctx, kc.Admin, cfg.Topic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		return nil, nil, err
	}
	k, err := publisher.NewKafka(kc.Client, cfg.Topic,
		publisher.WithLogger(logger),
		publisher.WithMetrics(m),
		publisher.WithBatchSize(cfg.BatchSize),
		publisher.WithFlushInterval(cfg.FlushInterval),
	)
	if err != nil {
		return nil, nil, err
	}
	return k, k.Run, nil
}

// modelClients returns nil interfaces, not typed nils, when Vertex AI is off.
func modelClients(c *ai.VertexClient) (service.Generator, ports.Transcriber) {
	if c == nil {
		return nil, nil
	}
	return c, c
}

func healthChecks(db *postgres.DB, rc *redis.Client, kc *kafka.Client) map[string]httptransport.HealthChecker {
	checks := map[string]httptransport.HealthChecker{}
	if db != nil {
		checks["postgres"] = db
	}
	if rc != nil {
		checks["redis"] = rc
	}
	if kc != nil {
		checks["kafka"] = kc
	}
	return checks
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return reg
}
