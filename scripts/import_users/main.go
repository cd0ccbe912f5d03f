package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/friendgraph/internal/config"
	"github.com/mroshb/friendgraph/internal/database"
	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/internal/repositories"
	"github.com/mroshb/friendgraph/internal/services"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/logger"
	"github.com/xuri/excelize/v2"
)

func main() {
	path := flag.String("file", "", "path to the .xlsx file with username/password columns")
	sheet := flag.String("sheet", "", "sheet to read (defaults to the first sheet)")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: import_users -file users.xlsx [-sheet Sheet1]")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	logger.Init("import_users")
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	f, err := excelize.OpenFile(*path)
	if err != nil {
		logger.Fatal("Failed to open workbook", err)
	}
	defer f.Close()

	rows, err := readUserRows(f, *sheet)
	if err != nil {
		logger.Fatal("Failed to read rows", err)
	}

	auth := services.NewAuthService(
		repositories.NewUserRepository(db, cfg.GetStoreTimeout()),
		cfg.JWTSecret,
		cfg.GetTokenTTL(),
	)

	summary := importUsers(context.Background(), auth, rows)
	fmt.Printf("Imported %d users, skipped %d existing, %d failed.\n", summary.Imported, summary.Skipped, summary.Failed)
}

type importSummary struct {
	Imported int
	Skipped  int
	Failed   int
}

type registrar interface {
	Register(ctx context.Context, username, password string) (string, *models.User, error)
}

func importUsers(ctx context.Context, auth registrar, rows []userRow) importSummary {
	var summary importSummary
	for _, row := range rows {
		_, _, err := auth.Register(ctx, row.Username, row.Password)
		switch {
		case err == nil:
			summary.Imported++
		case errors.HasCode(err, errors.ErrCodeAlreadyExists):
			summary.Skipped++
		default:
			summary.Failed++
			logger.Warn("Failed to import user", "row", row.Line, "username", row.Username, "error", err)
		}
	}
	return summary
}
