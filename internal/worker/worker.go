package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"voice_conversion/config"
	"voice_conversion/internal/controller/rmq"
	"voice_conversion/internal/db/gorm/mysql"
	"voice_conversion/internal/history"
	"voice_conversion/pkg/logger"

	ttrace "voice_conversion/internal/telemetry/trace"
)

var name = "voice-conversion-history-worker"

// NewWorker ...
func NewWorker(cfg *config.Config) (*Worker, error) {
	worker := &Worker{}

	closeFn, err := ttrace.InitGlobalProvider(name, cfg.OTEL)
	if err != nil {
		return nil, err
	}
	worker.traceProviderCloseFn = append(worker.traceProviderCloseFn, closeFn)

	return worker, nil
}

type Worker struct {
	traceProviderCloseFn []ttrace.CloseFunc
}

// Run consumes conversion events into the MySQL history until interrupted.
func (s *Worker) Run(ctx context.Context, cfg *config.Config) error {
	l := logger.New(cfg.Log.Level)

	db, err := mysql.NewDB(cfg.MYSQL)
	if err != nil {
		return fmt.Errorf("app - Run - mysql.NewDB: %w", err)
	}

	repo, err := history.NewRepository(db, l)
	if err != nil {
		return fmt.Errorf("app - Run - history.NewRepository: %w", err)
	}

	amqpWorker, err := rmq.NewAMQPWorker(cfg.RMQ, l, repo)
	if err != nil {
		return fmt.Errorf("app - Run - rmq.NewAMQPWorker: %w", err)
	}

	consumeCtx, stopConsume := context.WithCancel(ctx)
	defer stopConsume()

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- amqpWorker.StartConsumer(consumeCtx)
	}()

	l.Info("history worker started, queue %s", cfg.RMQ.Queue)

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err = <-consumerDone:
		if err != nil {
			l.Error(fmt.Errorf("app - Run - amqpWorker.StartConsumer: %w", err))
		}
	case <-ctx.Done():
		l.Info("app - Run - context done")
	}

	log.Printf("worker stopped")

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown
	stopConsume()
	if err := amqpWorker.CloseChan(); err != nil {
		l.Error(fmt.Errorf("app - Run - amqpWorker.CloseChan: %w", err))
	}

	sqlDB, dbErr := db.DB()
	if dbErr != nil {
		log.Error().Err(dbErr).Msgf("unable to get db driver")
	} else if dbErr = sqlDB.Close(); dbErr != nil {
		log.Error().Err(dbErr).Msgf("unable close db connection")
	}

	log.Printf("worker exited properly")

	for _, closeFn := range s.traceProviderCloseFn {
		if err := closeFn(ctxShutDown); err != nil {
			log.Error().Err(err).Msgf("Unable to close trace provider")
		}
	}

	return err
}
