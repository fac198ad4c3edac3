package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	httpadp "apparatus-lending/internal/adapter/http"
	"apparatus-lending/internal/adapter/middleware"
	mysqlrepo "apparatus-lending/internal/adapter/repository/mysql"
	"apparatus-lending/internal/config"
	"apparatus-lending/internal/infrastructure/cache"
	"apparatus-lending/internal/infrastructure/db"
	"apparatus-lending/internal/infrastructure/logging"
	"apparatus-lending/internal/usecase/catalog"
	"apparatus-lending/internal/usecase/dashboard"
	"apparatus-lending/internal/usecase/loan"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), cfg.DBLogLevel)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := db.Migrate(gdb); err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.WithError(err).Fatal("database handle")
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	tx := mysqlrepo.NewGormUoW(gdb)
	ledger := loan.NewLedger(tx,
		loan.WithLogger(log),
		loan.WithRetryAttempts(cfg.TxRetryAttempts),
		loan.WithPolicy(loan.Policy{BanDuration: cfg.BanDuration, BanThresholdDays: cfg.BanThresholdDays}),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover(), middleware.RequestLogger(log))
	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(map[string]httpadp.HealthCheck{
			"db":    sqlDB.PingContext,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Loans:     httpadp.NewLoanHandler(ledger),
		Catalog:   httpadp.NewCatalogHandler(catalog.New(tx, log)),
		Dashboard: httpadp.NewDashboardHandler(dashboard.New(tx, time.Now)),
	}, middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	go func() {
		addr := ":" + cfg.AppPort
		log.WithFields(logrus.Fields{"addr": addr, "db_driver": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
