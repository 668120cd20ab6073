package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/GregMSThompson/recurring-engine/internal/bootstrap"
	"github.com/GregMSThompson/recurring-engine/internal/config"
	"github.com/GregMSThompson/recurring-engine/internal/handlers"
	"github.com/GregMSThompson/recurring-engine/internal/response"
	"github.com/GregMSThompson/recurring-engine/internal/router"
	"github.com/GregMSThompson/recurring-engine/internal/scheduler"
	"github.com/GregMSThompson/recurring-engine/internal/services"
	"github.com/GregMSThompson/recurring-engine/internal/store"
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
	lcserv := services.NewLifecycleService(tstore, istore, genserv, cfg.HorizonMonths)
	pvserv := services.NewPreviewService()

	// scheduler
	sched, err := scheduler.New(genserv, cfg, bs.Log)
	exitOnError("scheduler setup failed", err, bs.Log)
	sched.Start()
	defer sched.Stop()

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.LifecycleSvc = lcserv
	deps.PreviewSvc = pvserv
	deps.GeneratorSvc = genserv
	deps.HorizonMonths = cfg.HorizonMonths

	// router
	r := router.NewRouter(deps)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			exitOnError("server start failed", err, bs.Log)
		}
	}()
	bs.Log.Info("server listening", "port", cfg.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Close()
}
