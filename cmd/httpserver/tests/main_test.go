//go:build integration

package tests

import (
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/bankrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

var (
	server *httpserver.Server
	db     *sql.DB
)

// TestMain calls testMain and passes the returned exit code to os.Exit(). The reason
// that TestMain is basically a wrapper around testMain is because os.Exit() does not
// respect deferred functions, so this configuration allows for a deferred function.
func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

// testMain returns an integer denoting an exit code to be returned and used in
// TestMain. The exit code 0 denotes success, all other codes denote failure.
func testMain(m *testing.M) int {
	config, err := configpkg.Load("../../../configs")
	if err != nil {
		log.Println("cannot load config:", err)
		return 1
	}

	zerolog.SetGlobalLevel(zerolog.FatalLevel)
	logger := middleware.CreateLogger(config)

	db, err = dbpkg.Setup("postgres", config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot setup database")
	}
	defer db.Close()

	if err := dbpkg.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("cannot migrate database")
	}

	gin.SetMode(gin.ReleaseMode)
	server, err = httpserver.New(httpserver.Deps{
		Store:    ledgerrepo.NewRepoPGS(db),
		Accounts: accountrepo.NewRepoPGS(db),
		Banks:    bankrepo.NewRepoPGS(db),
	}, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}

	return m.Run()
}
