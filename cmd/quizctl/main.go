package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-api/internal/config"
	"github.com/yourusername/quiz-api/internal/importer"
	pgRepo "github.com/yourusername/quiz-api/internal/repository/postgres"
	"github.com/yourusername/quiz-api/internal/service"
	"github.com/yourusername/quiz-api/pkg/database"
)

const usage = `quizctl - обслуживание базы quiz-api

Usage:
  quizctl [-config path] migrate             применить миграции (или AutoMigrate для sqlite)
  quizctl [-config path] force <version>     снять dirty-состояние миграций (только postgres)
  quizctl [-config path] bootstrap-admin     создать администратора из ADMIN_EMAIL/ADMIN_PASSWORD
  quizctl [-config path] seed                заполнить пустой банк демонстрационными вопросами
  quizctl [-config path] import <file>       импортировать вопросы из .pdf или .xlsx
  quizctl [-config path] clear-questions     удалить все вопросы
`

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadEnvFiles()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	switch args[0] {
	case "migrate":
		db := mustOpen(cfg.Database)
		defer closeDB(db)
		fmt.Println("Schema is up to date.")

	case "force":
		if len(args) < 2 {
			log.Fatal("force requires a version number")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version %q: %v", args[1], err)
		}
		if cfg.Database.Driver != "postgres" {
			log.Fatalf("force is only supported for postgres, got %q", cfg.Database.Driver)
		}
		// Open применил бы миграции и упал на dirty-состоянии
		db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer closeDB(db)

		fmt.Printf("Forcing migration version to %d to clean dirty state...\n", version)
		if err := database.ForceVersion(db, cfg.Database.MigrationsPath, version); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
		fmt.Println("Success! Dirty state cleaned. You can now run the app normally.")

	case "bootstrap-admin":
		db := mustOpen(cfg.Database)
		defer closeDB(db)

		accounts := service.NewAccountService(pgRepo.NewAccountRepo(db), pgRepo.NewQuestionRepo(db), pgRepo.NewAttemptRepo(db))
		admin, err := accounts.BootstrapAdmin(ctx, cfg.Admin)
		if err != nil {
			log.Fatalf("Failed to bootstrap admin: %v", err)
		}
		if admin == nil {
			log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
		}
		fmt.Printf("Admin account ready: %s\n", admin.Email)

	case "seed":
		db := mustOpen(cfg.Database)
		defer closeDB(db)

		if err := seedQuestions(ctx, service.NewQuestionService(pgRepo.NewQuestionRepo(db), nil)); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}

	case "clear-questions":
		db := mustOpen(cfg.Database)
		defer closeDB(db)

		n, err := service.NewQuestionService(pgRepo.NewQuestionRepo(db), nil).DeleteAll(ctx)
		if err != nil {
			log.Fatalf("Failed to delete questions: %v", err)
		}
		fmt.Printf("All questions deleted successfully (%d)\n", n)

	case "import":
		if len(args) < 2 {
			log.Fatal("import requires a file path")
		}
		db := mustOpen(cfg.Database)
		defer closeDB(db)

		if err := importFile(ctx, service.NewQuestionService(pgRepo.NewQuestionRepo(db), nil), args[1]); err != nil {
			log.Fatalf("Import failed: %v", err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func importFile(ctx context.Context, questions *service.QuestionService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var (
		parsed []importer.Question
		issues []importer.Issue
		source string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		source = "pdf"
		parsed, issues, err = importer.ParsePDF(data)
	case ".xlsx":
		source = "xlsx"
		parsed, issues, err = importer.ParseXLSX(data)
	default:
		return fmt.Errorf("unsupported file type %q, expected .pdf or .xlsx", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	for _, issue := range issues {
		fmt.Printf("skipped #%d: %s\n", issue.Position, issue.Reason)
	}
	if len(parsed) == 0 {
		return importer.ErrNoQuestions
	}

	inputs := make([]service.QuestionInput, 0, len(parsed))
	for _, q := range parsed {
		inputs = append(inputs, service.QuestionInput{
			QuestionText:  q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}
	result, err := questions.Import(ctx, source, inputs)
	if err != nil {
		return err
	}
	for _, issue := range result.Skipped {
		fmt.Printf("skipped #%d: %s\n", parsed[issue.Index].Position, issue.Reason)
	}
	fmt.Printf("Imported %d questions from %s\n", result.Imported, path)
	return nil
}

func mustOpen(cfg config.DatabaseConfig) *gorm.DB {
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return db
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
