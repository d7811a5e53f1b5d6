// Package main runs the ledger API server.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/bankrepo"
	"github.com/go-petr/pet-ledger/internal/eventpub"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	if err := run(config, logger); err != nil {
		logger.Fatal().Stack().Err(err).Send()
	}
}

func run(config configpkg.Config, logger zerolog.Logger) error {
	var closers []io.Closer

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Error().Err(err).Msg("cannot release resource")
			}
		}
	}()

	deps, err := openStore(config, logger, &closers)
	if err != nil {
		return err
	}

	publisher, err := eventpub.New(eventpub.Config{
		Broker:       config.EventsBroker,
		KafkaBrokers: config.Brokers(),
		KafkaTopic:   config.KafkaTopic,
		AMQPURL:      config.AMQPURL,
		AMQPExchange: config.AMQPExchange,
	})
	if err != nil {
		return err
	}

	closers = append(closers, publisher)
	deps.Publisher = publisher

	if config.RedisURL != "" {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return err
		}

		client := redis.NewClient(opts)
		closers = append(closers, client)
		deps.Redis = client
	}

	if config.Environement != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := httpserver.New(deps, logger, config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)

	go func() {
		errc <- server.Start()
	}()

	logger.Info().
		Str("address", config.ServerAddress).
		Str("store", config.DBDriver).
		Str("events", config.EventsBroker).
		Msg("LEDGER API SERVER HAS STARTED")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errc
}

// openStore opens the store selected by DB_DRIVER and its directories.
func openStore(config configpkg.Config, logger zerolog.Logger, closers *[]io.Closer) (httpserver.Deps, error) {
	switch config.DBDriver {
	case "memory":
		store := memstore.New()
		*closers = append(*closers, store)

		logger.Warn().Msg("using the in-memory store, balances are lost on exit")

		return httpserver.Deps{
			Store:    store,
			Accounts: memstore.NewAccountDirectory(store),
			Banks:    memstore.NewBankDirectory(config.Banks()),
		}, nil
	case "postgres":
		db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
		if err != nil {
			return httpserver.Deps{}, err
		}

		*closers = append(*closers, db)

		if config.MigrateOnStart {
			if err := dbpkg.Migrate(db); err != nil {
				return httpserver.Deps{}, err
			}
		}

		return httpserver.Deps{
			Store:    ledgerrepo.NewRepoPGS(db),
			Accounts: accountrepo.NewRepoPGS(db),
			Banks:    bankrepo.NewRepoPGS(db),
		}, nil
	}

	return httpserver.Deps{}, errors.New("unsupported DB_DRIVER " + config.DBDriver)
}
