// Package app собирает процессы сервиса заказов и клиентского портала.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/carwash/internal/health"
	"github.com/vladislavdragonenkov/carwash/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/carwash/internal/metrics"
	"github.com/vladislavdragonenkov/carwash/internal/service/httpapi"
	"github.com/vladislavdragonenkov/carwash/internal/service/orders"
	"github.com/vladislavdragonenkov/carwash/internal/service/outbox"
	"github.com/vladislavdragonenkov/carwash/internal/version"
)

// grpcHealthService — имя сервиса в gRPC health protocol.
const grpcHealthService = "carwash.orders"

var errKafkaUnavailable = errors.New("kafka producer is not available")

// Run поднимает сервис заказов: REST API, gRPC health, метрики и outbox worker.
// Возвращает nil после штатной остановки по ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		producer = nil
	}
	defer closeKafka(producer, logger)

	serviceOptions := []orders.Option{
		orders.WithLogger(logger.WithField("layer", "orders")),
		orders.WithMetrics(metrics.NewOrderMetrics()),
		orders.WithTimeline(deps.timelineRepo),
	}

	var worker *outbox.Worker
	if producer != nil {
		serviceOptions = append(serviceOptions, orders.WithOutbox(deps.outboxRepo))
		worker = outbox.NewWorker(
			deps.outboxRepo,
			kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithMetrics(metrics.NewOutboxMetrics()),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
	}
	svc := orders.NewService(deps.repo, serviceOptions...)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return deps.ping(pingCtx)
	}))
	if len(cfg.KafkaBrokers) > 0 {
		healthHandler.RegisterChecker("kafka", healthcheck.NewDegradedChecker("kafka", func() error {
			if producer == nil {
				return errKafkaUnavailable
			}
			return nil
		}))
	}

	apiSrv := &http.Server{
		Handler:           httpapi.NewHandler(svc, logger.WithField("layer", "http")).Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	opsSrv := &http.Server{
		Handler:           newOpsRouter(healthHandler, promhttp.Handler()),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	grpcServer, grpcHealth := newGRPCServer(logger)

	listeners := make([]net.Listener, 0, 3)
	closeListeners := func() {
		for _, lis := range listeners {
			_ = lis.Close()
		}
	}
	for _, target := range []struct{ addr, name string }{
		{cfg.HTTPAddr, "rest"},
		{cfg.GRPCAddr, "grpc"},
		{cfg.MetricsAddr, "metrics"},
	} {
		lis, err := listen(target.addr, target.name)
		if err != nil {
			closeListeners()
			return err
		}
		listeners = append(listeners, lis)
	}
	apiLis, grpcLis, opsLis := listeners[0], listeners[1], listeners[2]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveHTTP(apiSrv, apiLis, "rest", logger) })
	g.Go(func() error { return serveHTTP(opsSrv, opsLis, "metrics", logger) })
	g.Go(func() error {
		logger.WithField("addr", grpcLis.Addr().String()).Info("grpc сервер запущен")
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error { return worker.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем сервис заказов")
		grpcHealth.Shutdown()
		stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(opsSrv, cfg.ShutdownTimeout, logger)
		return nil
	})

	return g.Wait()
}

// newGRPCServer создаёт gRPC-сервер с health service и prometheus-интерцепторами.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcHealthService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	// grpcurl и grpc_health_probe находят сервисы через reflection.
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)

	return server, healthServer
}
