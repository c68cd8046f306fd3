package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/migrate"
)

type cliFlags struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var fl cliFlags
	flag.StringVar(&fl.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&fl.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&fl.name, "name", "", "migration name (for create)")
	flag.StringVar(&fl.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": fl.cmd,
		"dir": fl.dir,
	})

	// create and validate work purely on the filesystem
	switch fl.cmd {
	case "create":
		runCreate(fl)
		return
	case "validate":
		runValidate(fl)
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail("connect database: %v", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail("extract sql.DB: %v", err)
	}

	logg.Info(ctx, "migrate ready")

	switch fl.cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, fl.dir, fl.cmd); err != nil {
			fail("goose %s failed: %v", fl.cmd, err)
		}
	case "version":
		if fl.version == "" {
			fail("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, fl.dir, fl.version); err != nil {
			fail("goose version migrate failed: %v", err)
		}
	default:
		fail("unknown -cmd value: %s", fl.cmd)
	}
}

func runCreate(fl cliFlags) {
	if fl.name == "" {
		fail("missing -name for create")
	}
	path, err := migrate.CreateSQLMigration(fl.dir, fl.name)
	if err != nil {
		fail("failed to create migration: %v", err)
	}
	fmt.Println("created migration:", path)
}

func runValidate(fl cliFlags) {
	if err := migrate.ValidateDir(fl.dir); err != nil {
		fail("migration validation failed: %v", err)
	}
	fmt.Println("migration validation passed")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
