package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/book-service/book/config"
	"github.com/Astemirdum/book-service/book/internal/handler"
	"github.com/Astemirdum/book-service/book/internal/repository"
	"github.com/Astemirdum/book-service/book/internal/server"
	"github.com/Astemirdum/book-service/book/internal/service"
	"github.com/Astemirdum/book-service/book/migrations"
	"github.com/Astemirdum/book-service/pkg/circuit_breaker"
	"github.com/Astemirdum/book-service/pkg/kafka"
	"github.com/Astemirdum/book-service/pkg/logger"
	"github.com/Astemirdum/book-service/pkg/metrics"
	"github.com/Astemirdum/book-service/pkg/postgres"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func Run(cfg config.Config) error {
	log := logger.NewLogger(cfg.Log, "book")
	defer log.Sync() //nolint:errcheck

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Error("db init", zap.Error(err))
		return errors.Wrap(err, "db init")
	}
	defer db.Close()

	repo := repository.NewRepository(db, log)
	svcOpts := []service.Option{service.WithPaginationLimits(cfg.Pagination)}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Error("kafka.NewProducer", zap.Error(err))
			return errors.Wrap(err, "kafka producer")
		}
		cb := circuit_breaker.New(
			cfg.CircuitBreaker.RecordLength,
			cfg.CircuitBreaker.Timeout,
			cfg.CircuitBreaker.Percentile,
			cfg.CircuitBreaker.RecoveryRequests,
		)
		publisher := kafka.NewPublisher(producer, cfg.Kafka.Topic, cb)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("kafka publisher close", zap.Error(err))
			}
		}()
		svcOpts = append(svcOpts, service.WithEventPublisher(publisher))
		log.Info("book events enabled",
			zap.Strings("brokers", cfg.Kafka.Addrs),
			zap.String("topic", cfg.Kafka.Topic))
	}
	svc := service.NewService(repo, log, svcOpts...)

	hOpts := []handler.Option{
		handler.WithRateLimit(cfg.RateLimit),
		handler.WithAssetsDir(cfg.AssetsDir),
	}
	if cfg.Metrics.Enabled {
		hOpts = append(hOpts, handler.WithMetrics(metrics.New("book"), cfg.Metrics.Path))
	}
	h := handler.New(svc, log, hOpts...)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	runErr := make(chan error, 1)
	go func() {
		runErr <- srv.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case termSig := <-sig:
		log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	case err := <-runErr:
		if err != nil {
			log.Error("server run", zap.Error(err))
			return errors.Wrap(err, "server run")
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}
