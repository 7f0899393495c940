package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	healthcheck "github.com/vladislavdragonenkov/carwash/internal/health"
	"github.com/vladislavdragonenkov/carwash/internal/metrics"
	"github.com/vladislavdragonenkov/carwash/internal/orderapi"
	"github.com/vladislavdragonenkov/carwash/internal/portal"
	"github.com/vladislavdragonenkov/carwash/internal/storage/local"
	"github.com/vladislavdragonenkov/carwash/internal/version"
	"github.com/vladislavdragonenkov/carwash/internal/web"
)

var errOrderServiceUnavailable = errors.New("order service is not available")

// RunPortal поднимает клиентский портал: форму заказа и очередь.
// Возвращает nil после штатной остановки по ctx.
func RunPortal(ctx context.Context, cfg PortalConfig) error {
	logger := log.WithField("component", "portal")

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	controller, err := newPortalController(cfg, logger, healthHandler)
	if err != nil {
		return err
	}
	controller.Load(ctx)

	handler, err := web.NewHandler(controller,
		web.WithLogger(logger.WithField("layer", "web")),
		web.WithListOptions(web.ListOptions{
			AllowComplete: cfg.AllowComplete,
			AllowCancel:   cfg.AllowCancel,
		}),
		web.WithHealth(healthHandler),
		web.WithMetricsHandler(promhttp.Handler()),
	)
	if err != nil {
		return err
	}

	lis, err := listen(cfg.Addr, "portal")
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler.Router(), ReadHeaderTimeout: readHeaderTimeout}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveHTTP(srv, lis, "portal", logger) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем портал")
		shutdownHTTP(srv, cfg.ShutdownTimeout, logger)
		return nil
	})
	return g.Wait()
}

// newPortalController выбирает адаптер хранения по режиму и регистрирует его проверку.
func newPortalController(cfg PortalConfig, logger *log.Entry, healthHandler *healthcheck.Handler) (*portal.Controller, error) {
	options := []portal.Option{
		portal.WithLogger(logger.WithField("layer", "controller")),
		portal.WithMetrics(metrics.NewPortalMetrics()),
	}

	switch cfg.Mode {
	case portal.ModeLocal:
		store := local.New(cfg.DataDir,
			local.WithKey(cfg.StorageKey),
			local.WithLogger(logger.WithField("layer", "local-store")),
		)
		healthHandler.RegisterChecker("local_store", localStoreChecker{store: store})
		logger.WithField("path", store.Path()).Info("portal uses local storage")
		return portal.NewLocal(store, options...), nil
	case portal.ModeRemote:
		client := orderapi.New(cfg.APIBaseURL,
			orderapi.WithTimeout(cfg.APITimeout),
			orderapi.WithLogger(logger.WithField("layer", "orderapi")),
			orderapi.WithMetrics(metrics.NewClientMetrics()),
		)
		healthHandler.RegisterChecker("order_service", healthcheck.NewDegradedChecker("order_service", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
			defer cancel()
			if !client.CheckAvailability(checkCtx) {
				return errOrderServiceUnavailable
			}
			return nil
		}))
		logger.WithField("base_url", cfg.APIBaseURL).Info("portal uses order service")
		return portal.NewRemote(client, options...), nil
	default:
		return nil, fmt.Errorf("unsupported portal mode %q", cfg.Mode)
	}
}

// localStoreChecker проверяет каталог локального хранилища. Каталога ещё нет
// до первой записи, это degraded; любая другая ошибка делает портал unhealthy.
type localStoreChecker struct {
	store *local.Store
}

func (c localStoreChecker) Check() healthcheck.Check {
	err := c.store.Ping()
	probe := func() error { return err }
	if errors.Is(err, fs.ErrNotExist) {
		return healthcheck.NewDegradedChecker("local_store", probe).Check()
	}
	return healthcheck.NewSimpleChecker("local_store", probe).Check()
}
