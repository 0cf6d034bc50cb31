package main

import (
	"context"
	"flag"
	"fmt"
	"ms-rsvp/internal/config"
	"ms-rsvp/internal/database"
	"ms-rsvp/internal/database/migrations"
	"ms-rsvp/internal/logger"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: rsvp-migrate [-dir ./migrations] up|down|to <version>|version\n")
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "", "migrations directory (defaults to DB_MIGRATIONS_DIR)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	log := logger.NewWriterLogger(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Failed to load configuration: %v", err))
	}
	if cfg.Database.Driver == database.DriverSQLite {
		log.Fatal("MIGRATE", "SQL migrations target postgres; the sqlite store creates its schema on start")
	}
	if *dir != "" {
		cfg.Database.MigrationsDir = *dir
	}

	bunDB, err := database.Open(context.Background(), cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: cfg.Database.MigrationsDir}, log)
	defer runner.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "to":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		var v uint64
		v, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err == nil {
			err = runner.MigrateTo(uint(v))
		}
	case "version":
		version, dirty, ok, verr := runner.Version()
		if verr != nil {
			err = verr
			break
		}
		if !ok {
			log.Info("MIGRATE", "No migrations applied")
		} else {
			log.Info("MIGRATE", fmt.Sprintf("Schema version %d (dirty=%t)", version, dirty))
		}
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "✅ Done.")
}
