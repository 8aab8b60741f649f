package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/config"
	"github.com/conductor-oss/decider-go/decider"
	"github.com/conductor-oss/decider-go/execution"
	"github.com/conductor-oss/decider-go/httpapi"
	"github.com/conductor-oss/decider-go/mapper"
	"github.com/conductor-oss/decider-go/metrics"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/payload"
	"github.com/conductor-oss/decider-go/queue"
	"github.com/conductor-oss/decider-go/store"
	"github.com/conductor-oss/decider-go/tick"
)

// app bundles every collaborator a subcommand might need. Built fresh per invocation from cfg.
type app struct {
	Config     *config.Config
	Redis      *redis.Client
	Queue      queue.Queue
	Metadata   *store.MemMetadataStore
	Executions *store.MemExecutionStore
	Index      *store.MemIndexStore
	Decider    *decider.Decider
	Service    *execution.Service
	Applier    *execution.Applier
	Ticker     *tick.Ticker
	HTTP       *httpapi.Server
	Logger     *zap.Logger
}

func buildApp(cfg *config.Config, logger *zap.Logger) *app {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Queue.RedisAddr,
		DB:   cfg.Queue.RedisDB,
	})

	q := queue.NewRedisQueue(redisClient, time.Duration(cfg.Queue.VisibilityTimeoutMs)*time.Millisecond)
	metadata := store.NewMemMetadataStore()
	executions := store.NewMemExecutionStore()
	index := store.NewMemIndexStore(executions)

	rec := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	payloadStore := payload.NewRedisStore(redisClient, "payload:")
	gateway := payload.NewGateway(payloadStore, cfg.Payload.ThresholdBytes, payload.WithUsageRecorder(rec))
	gatewayAdapter := decider.GatewayAdapter{Ctx: context.Background(), Gateway: gateway}

	mappers := mapper.NewRegistry()
	newTaskID := func() string { return uuid.NewString() }

	taskDefs := func(name string) *model.TaskDef {
		td, err := metadata.GetTaskDef(context.Background(), name)
		if err != nil {
			return nil
		}
		return td
	}

	d := decider.New(mappers, q, gatewayAdapter, taskDefs, newTaskID, logger)
	d.Metrics = rec

	svc := execution.New(q, executions, executions, logger)
	svc.Metrics = rec
	svc.Limiter = executions
	svc.TaskDefs = taskDefs
	svc.RequeueTimeout = time.Duration(cfg.Task.RequeueTimeoutMs) * time.Millisecond

	applier := execution.NewApplier(q, executions, executions, logger)

	httpSrv := httpapi.New(cfg.HTTP.Addr, q, svc, logger)

	wdLoader := func(ctx context.Context, name string, version int) (*model.WorkflowDef, error) {
		return metadata.GetWorkflowDef(ctx, name, version)
	}
	ticker := tick.New(d, svc, executions, wdLoader, applier, logger)

	return &app{
		Config:     cfg,
		Redis:      redisClient,
		Queue:      q,
		Metadata:   metadata,
		Executions: executions,
		Index:      index,
		Decider:    d,
		Service:    svc,
		Applier:    applier,
		Ticker:     ticker,
		HTTP:       httpSrv,
		Logger:     logger,
	}
}
