package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	appmigrations "github.com/wolfman30/salon-booking-wizard/migrations"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

const usage = "usage: migrate [up | down [n] | force <version> | version]"

// migrator is the part of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	m, closeFn, err := openMigrator(databaseURL)
	if err != nil {
		logger.Error("failed to prepare migrations", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	msg, err := run(m, os.Args[1:])
	if err != nil {
		logger.Error("migration command failed", "args", strings.Join(os.Args[1:], " "), "error", err)
		closeFn()
		os.Exit(1)
	}
	logger.Info(msg)
}

func openMigrator(databaseURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db driver: %w", err)
	}
	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}

	var closed bool
	return m, func() {
		if closed {
			return
		}
		closed = true
		_, _ = m.Close()
	}, nil
}

// run executes one command and returns the line to report.
func run(m migrator, args []string) (string, error) {
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return "", fmt.Errorf("migrate up: %w", err)
		}
		return "migrations complete", nil
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return "", fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil {
			return "", fmt.Errorf("migrate down: %w", err)
		}
		return fmt.Sprintf("rolled back %d migration(s)", steps), nil
	case "force":
		if len(args) < 2 {
			return "", errors.New(usage)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return "", fmt.Errorf("force version: %w", err)
		}
		return fmt.Sprintf("forced version to %d", version), nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "no migrations applied", nil
		}
		if err != nil {
			return "", fmt.Errorf("read version: %w", err)
		}
		return fmt.Sprintf("version %d (dirty=%t)", version, dirty), nil
	default:
		return "", errors.New(usage)
	}
}
