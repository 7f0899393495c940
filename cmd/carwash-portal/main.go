package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/app"
	"github.com/vladislavdragonenkov/carwash/internal/portal"
	"github.com/vladislavdragonenkov/carwash/internal/version"
)

// setupLogger настраивает формат и уровень логирования для портала.
func setupLogger(rawLevel string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(rawLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	setupLogger(os.Getenv("CARWASH_LOG_LEVEL"))

	cfg, warnings := app.PortalConfigFromEnv(os.Getenv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fields := log.Fields{
		"version": version.GetVersion(),
		"addr":    cfg.Addr,
		"mode":    cfg.Mode,
	}
	if cfg.Mode == portal.ModeRemote {
		fields["api_base_url"] = cfg.APIBaseURL
	} else {
		fields["data_dir"] = cfg.DataDir
	}
	log.WithFields(fields).Info("запускаем портал автомойки")

	if err := app.RunPortal(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("портал завершился с ошибкой")
	}

	log.Info("портал остановлен")
}
