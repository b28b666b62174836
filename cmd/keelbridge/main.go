package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KeelLabsHQ/keelbridge/internal/config"
	"github.com/KeelLabsHQ/keelbridge/internal/core/application"
	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
	"github.com/KeelLabsHQ/keelbridge/internal/infrastructure/db"
	"github.com/KeelLabsHQ/keelbridge/internal/infrastructure/feepolicy/static"
	"github.com/KeelLabsHQ/keelbridge/internal/infrastructure/ledger/inmemory"
	httporacle "github.com/KeelLabsHQ/keelbridge/internal/infrastructure/oracle/http"
	scheduler "github.com/KeelLabsHQ/keelbridge/internal/infrastructure/scheduler/gocron"
	"github.com/KeelLabsHQ/keelbridge/internal/interface/web"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	log.Info("starting keelbridge...")

	dbSvc, err := db.NewService(db.ServiceConfig{
		DbType:   "badger",
		DbConfig: []any{cfg.Datadir, log.New()},
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	ledgerSvc := inmemory.NewService()
	feeSvc := static.NewService(dbSvc.Settings())

	var oracle ports.DepositApprovalOracle
	if cfg.OracleURL != "" {
		oracle = httporacle.NewService(cfg.OracleURL)
	}

	appSvc, err := application.NewService(
		dbSvc, ledgerSvc, feeSvc, oracle,
		cfg.EscrowAccount, cfg.AdminAccount,
		domain.Settings{
			FeeRecipient:      cfg.FeeRecipient,
			DepositFeeSats:    cfg.DepositFeeSats,
			WithdrawalFeeSats: cfg.WithdrawalFeeSats,
			OracleURL:         cfg.OracleURL,
		},
	)
	if err != nil {
		log.WithError(err).Fatal(err)
	}

	schedulerSvc := scheduler.NewScheduler()
	if err := schedulerSvc.ScheduleReconciliation(
		cfg.ReconcileInterval, appSvc.LogReconciliationReport,
	); err != nil {
		log.WithError(err).Fatal("failed to schedule reconciliation")
	}
	schedulerSvc.Start()

	svc := web.NewService(web.Config{Port: cfg.HTTPPort}, appSvc)

	log.RegisterExitHandler(func() {
		svc.Stop()
		schedulerSvc.Stop()
		dbSvc.Close()
	})

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
