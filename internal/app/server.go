package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	healthcheck "github.com/vladislavdragonenkov/carwash/internal/health"
)

const readHeaderTimeout = 5 * time.Second

// newOpsRouter собирает служебные эндпоинты: /metrics и health probes.
func newOpsRouter(healthHandler *healthcheck.Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", metricsHandler)
	healthHandler.Routes(r)
	return r
}

func listen(addr, name string) (net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s on %s: %w", name, addr, err)
	}
	return lis, nil
}

// serveHTTP обслуживает srv до Shutdown. Штатная остановка не считается ошибкой.
func serveHTTP(srv *http.Server, lis net.Listener, name string, logger *log.Entry) error {
	logger.WithField("addr", lis.Addr().String()).Infof("%s сервер запущен", name)
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

// stopGRPC ждёт завершения активных RPC, но не дольше timeout.
func stopGRPC(server *grpc.Server, timeout time.Duration, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}
