package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Egor213/AuditTrack/internal/broker"
	kafkabroker "github.com/Egor213/AuditTrack/internal/broker/kafka"
	"github.com/Egor213/AuditTrack/internal/config"
	grpcv1 "github.com/Egor213/AuditTrack/internal/controller/grpc/v1"
	httpv1 "github.com/Egor213/AuditTrack/internal/controller/http/v1"
	"github.com/Egor213/AuditTrack/internal/export"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/repo"
	"github.com/Egor213/AuditTrack/internal/service"
	"github.com/Egor213/AuditTrack/internal/viewer"
	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"
	"github.com/Egor213/AuditTrack/pkg/grpcserver"
	"github.com/Egor213/AuditTrack/pkg/httpserver"
	"github.com/Egor213/AuditTrack/pkg/logger"
	"github.com/Egor213/AuditTrack/pkg/postgres"
	"github.com/Egor213/AuditTrack/pkg/redis"
	"github.com/labstack/echo/v4"

	log "github.com/sirupsen/logrus"
)

const (
	sweepInterval    = time.Minute
	metricsSubsystem = "audittrack_api"
)

func Run() {
	// Config
	cfg, err := config.New()
	if err != nil {
		log.Fatal(errorsUtils.WrapPathErr(err))
	}

	// Logger
	logger.SetupLogger(cfg.Log.Level)
	log.Info("Logger has been set up")

	// Migrations
	if err := Migrate(cfg.PG.URL); err != nil {
		log.Fatal(errorsUtils.WrapPathErr(err))
	}

	// DB connecting
	log.Info("Connecting to DB")
	pg, err := postgres.New(cfg.PG.URL,
		postgres.MaxPoolSize(cfg.PG.MaxPoolSize),
		postgres.ApplicationName(cfg.App.Name),
		postgres.StatementTimeout(cfg.Viewer.FetchTimeout),
	)
	if err != nil {
		log.Fatal(errorsUtils.WrapPathErr(err))
	}
	defer pg.Close()
	log.Info("Connected to DB")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repos
	var repoOpts []repo.Option
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, cfg.Redis.Addr, redis.Password(cfg.Redis.Password))
		if err != nil {
			log.Fatal(errorsUtils.WrapPathErr(err))
		}
		defer rdb.Close()
		repoOpts = append(repoOpts, repo.WithUserCache(rdb, cfg.Redis.LookupTTL))
		log.Info("Users lookup cached in Redis")
	}
	repositories := repo.NewRepositories(pg, repoOpts...)

	// Broker
	var producer broker.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafkabroker.NewProducer(kafkabroker.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error(errorsUtils.WrapPathErr(err))
			}
		}()
		producer = kp
	} else {
		log.Info("Kafka brokers are not set, audit notifications disabled")
	}

	// Services
	counters := metrics.New()
	services := service.NewServices(service.ServicesDependencies{
		Repos:          repositories,
		Counters:       counters,
		BrokerProducer: producer,
		StatsBuckets:   cfg.Viewer.StatsBuckets,
	})

	// Export
	var renderer export.DocumentRenderer
	gotenberg, err := export.NewGotenbergRenderer(cfg.Renderer.Endpoint, &http.Client{Timeout: cfg.Renderer.Timeout})
	if err != nil {
		log.WithError(err).Warn("Document export disabled")
	} else {
		renderer = gotenberg
	}
	engine := export.NewEngine(renderer, services.Audit, counters)

	// Viewer sessions
	viewerOpts := viewer.Options{
		PageSize:     cfg.Viewer.PageSize,
		ActorJoin:    cfg.Viewer.ActorJoin,
		FetchTimeout: cfg.Viewer.FetchTimeout,
		Counters:     counters,
	}
	registry := viewer.NewRegistry(func(id string, identity viewer.Identity) *viewer.Session {
		return viewer.NewSession(id, identity, services.Log, engine, viewerOpts)
	}, cfg.Viewer.SessionTTL)
	go registry.Run(ctx, sweepInterval)

	// HTTP API server
	log.Infof("Starting HTTP server...")
	log.Debugf("Server port: %s", cfg.HTTP.Port)
	apiHandler := echo.New()
	httpv1.ConfigureRouter(apiHandler, httpv1.RouterDeps{
		Registry:    registry,
		Lookups:     viewer.NewLogStore(services.Log, viewer.WithFetchTimeout(cfg.Viewer.FetchTimeout)),
		JWTSecret:   cfg.Auth.JWTSecret,
		ExportLimit: cfg.Viewer.ExportLimit,
		Middlewares: []echo.MiddlewareFunc{metrics.Middleware(metricsSubsystem)},
	})
	httpServer := httpserver.New(apiHandler,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.WriteTimeout(cfg.Renderer.Timeout+cfg.Viewer.FetchTimeout),
	)

	// gRPC Server
	log.Infof("Starting gRPC server...")
	log.Debugf("Server port: %s", cfg.GRPC.Port)
	registerFun := grpcv1.RegisterServices(services, counters, viewerOpts)
	grpcServer, err := grpcserver.New(registerFun,
		grpcserver.WithPort(cfg.GRPC.Port),
		grpcserver.WithUnaryInterceptor(grpcv1.LoggingInterceptor()),
	)
	if err != nil {
		log.Fatal(errorsUtils.WrapPathErr(err))
	}

	// Prometheus server
	log.Infof("Starting metrics server...")
	log.Debugf("Server port: %s", cfg.Prometheus.Port)
	metricsHandler := echo.New()
	metrics.ConfigureRouter(metricsHandler)
	metricsServer := httpserver.New(metricsHandler, httpserver.Port(cfg.Prometheus.Port))

	// Waiting signal
	log.Info("Configuring graceful shutdown")
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app - Run - signal: " + s.String())
	case err := <-httpServer.Notify():
		log.Info(errorsUtils.WrapPathErr(err))
	case err := <-metricsServer.Notify():
		log.Info(errorsUtils.WrapPathErr(err))
	case err := <-grpcServer.Notify():
		log.Info(errorsUtils.WrapPathErr(err))
	}

	// Graceful shutdown
	log.Info("Shutting down...")
	if err := httpServer.Shutdown(); err != nil {
		log.Error(errorsUtils.WrapPathErr(err))
	}
	grpcServer.Shutdown()
	if err := metricsServer.Shutdown(); err != nil {
		log.Error(errorsUtils.WrapPathErr(err))
	}

	cancel()
	registry.CloseAll()
	engine.Wait()
}
