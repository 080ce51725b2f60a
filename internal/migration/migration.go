package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	authdomain "github.com/smallbiznis/zyra/internal/auth/domain"
	billingdomain "github.com/smallbiznis/zyra/internal/billing/domain"
	notificationdomain "github.com/smallbiznis/zyra/internal/notification/domain"
	productdomain "github.com/smallbiznis/zyra/internal/product/domain"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// Models lists every table in the schema, parents first.
func Models() []any {
	models := authdomain.Models()
	models = append(models, usagedomain.Models()...)
	models = append(models, &productdomain.Product{})
	models = append(models, billingdomain.Models()...)
	models = append(models, &notificationdomain.Notification{})
	return models
}

// Run brings the schema up to date. Postgres uses the versioned SQL files;
// mysql and sqlite are migrated from the gorm models.
func Run(conn *gorm.DB, dialect string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if dialect != "postgres" {
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate %s: %w", dialect, err)
		}
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunPostgres(sqlDB)
}

func RunPostgres(db *sql.DB) error {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.
	return nil
}
