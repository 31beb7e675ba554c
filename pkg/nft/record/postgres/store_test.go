package postgres

import (
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	postgrestest "github.com/code-payments/nft-minter/pkg/database/postgres/test"
	"github.com/code-payments/nft-minter/pkg/nft/record"
	"github.com/code-payments/nft-minter/pkg/nft/record/tests"
)

// The table and its migrations live outside this repository. This copy is for
// tests only.
var schema = postgrestest.Schema{
	Create: `
		CREATE TABLE nftminter__core_mint (
			id serial NOT NULL PRIMARY KEY,

			flow_id uuid NOT NULL,

			mint text NOT NULL UNIQUE,
			signature text NOT NULL,
			strategy text NOT NULL,
			metadata_address text NOT NULL,
			holder text NOT NULL,

			name text NOT NULL,
			symbol text NOT NULL,
			uri text NOT NULL,

			created_at timestamp with time zone NOT NULL
		);
	`,
	Drop: `DROP TABLE nftminter__core_mint;`,
}

var (
	testStore record.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger().WithField("type", "nft/record/postgres")

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("error creating docker pool")
		os.Exit(1)
	}

	database, err := postgrestest.StartPostgresDB(pool, schema)
	if err != nil {
		log.WithError(err).Error("error starting postgres container")
		os.Exit(1)
	}

	testStore = New(database.DB)
	teardown = func() {
		if pc := recover(); pc != nil {
			database.Close()
			panic(pc)
		}

		if err := database.Reset(); err != nil {
			log.WithError(err).Error("error resetting test tables")
			database.Close()
			os.Exit(1)
		}
	}

	code := m.Run()
	database.Close()
	os.Exit(code)
}

func TestMintRecordPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}
