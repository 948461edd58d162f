package app

import (
	"errors"
	"os"
	"time"

	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMigrateAttempts = 10
	defaultMigrateTimeout  = time.Second
	migrationsPath         = "migrations"
)

// Migrate applies every pending migration, retrying while Postgres comes up.
func Migrate(pgURL string) error {
	log.Info("Applying migrations")

	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		return errorsUtils.WrapPathErr(err)
	}

	var (
		attempts = defaultMigrateAttempts
		mgrt     *migrate.Migrate
		err      error
	)

	for attempts > 0 {
		mgrt, err = migrate.New("file://"+migrationsPath, pgURL)
		if err == nil {
			break
		}

		time.Sleep(defaultMigrateTimeout)
		log.Infof("Postgres trying to connect, attempts left: %d", attempts)
		attempts--
	}

	if err != nil {
		return errorsUtils.WrapPathErr(err)
	}
	defer mgrt.Close()

	err = mgrt.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("Migration no change")
		return nil
	case err != nil:
		return errorsUtils.WrapPathErr(err)
	}

	log.Info("Migration successful up")
	return nil
}
