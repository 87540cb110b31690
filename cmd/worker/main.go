package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/config"
	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
	"github.com/Mani87-nq/yardbooks-pos/internal/receipt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("pos", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	queue := cfg.ReceiptQueue
	if queue == "" {
		queue = receipt.DefaultQueue
	}
	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: 4,
		Queues:      map[string]int{queue: 1},
		Logger:      asynqZerolog{logger},
	})

	processor := &receipt.Processor{
		Printer: receipt.LogPrinter{Logger: logger},
		Mailer:  &receipt.EmailMailer{Sender: common.NopEmailSender{}, From: "receipts@yardbooks.local"},
		Logger:  logger,
	}
	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info().Str("queue", queue).Msg("receipt worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start receipt worker")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	srv.Shutdown()
}

// asynqZerolog adapts zerolog to asynq's logger interface.
type asynqZerolog struct {
	logger zerolog.Logger
}

func (l asynqZerolog) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqZerolog) Info(args ...any)  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqZerolog) Warn(args ...any)  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqZerolog) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqZerolog) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
