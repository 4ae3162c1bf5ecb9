package main

import (
	"flag"
	"log"

	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/migration"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	withProfiles := flag.Bool("profiles", false, "also create the profiles table (standalone environments)")
	seed := flag.Bool("seed", false, "insert demo profiles into an empty profiles table")
	dryRun := flag.Bool("dry-run", false, "list the tables that would be migrated")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	dotenvFiles, dotenvErr := config.LoadDotEnv(".")
	pkglogger.InitStructured("local")
	pkglogger.Info("loaded env files: %v", dotenvFiles)
	if dotenvErr != nil {
		pkglogger.Warn("dotenv: %v", dotenvErr)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	if *dryRun {
		for _, model := range migration.ChatModels() {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(model); err != nil {
				log.Fatalf("parse model: %v", err)
			}
			pkglogger.Info("[dry-run] would migrate %s", stmt.Schema.Table)
		}
		return
	}

	if err := migration.Run(db, *withProfiles || *seed); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	pkglogger.Info("Chat tables migrated")

	if *seed {
		if err := migration.SeedProfiles(db); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		pkglogger.Info("Demo profiles seeded")
	}
}
