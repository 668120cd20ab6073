// A one-shot generation sweep: run a single pass over every active
// template and exit. Meant for Cloud Run jobs and manual backfills where
// the long-running API server is not wanted.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/GregMSThompson/recurring-engine/internal/bootstrap"
	"github.com/GregMSThompson/recurring-engine/internal/config"
	"github.com/GregMSThompson/recurring-engine/internal/services"
	"github.com/GregMSThompson/recurring-engine/internal/store"
	"github.com/GregMSThompson/recurring-engine/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// stores
	tstore := store.NewTemplateStore(bs.Firestore)
	istore := store.NewInstanceStore(bs.Firestore)

	// services
	genserv := services.NewGeneratorService(tstore, istore, cfg.GenerationWorkers)

	ctx := logger.ToContext(context.Background(), bs.Log.With("trigger", "job"))
	horizon := time.Now().UTC().AddDate(0, cfg.HorizonMonths, 0)

	report, err := genserv.RunPass(ctx, horizon)
	exitOnError("generation pass failed", err, bs.Log)

	bs.Log.Info("sweep complete",
		"templates_processed", report.TemplatesProcessed,
		"instances_created", report.InstancesCreated,
		"failures", len(report.Failures),
	)
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
