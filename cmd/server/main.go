package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/zhengcoach/zhengcoach/internal/analyzer"
	"github.com/zhengcoach/zhengcoach/internal/api"
	"github.com/zhengcoach/zhengcoach/internal/database"
	"github.com/zhengcoach/zhengcoach/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	maxUploadSize := os.Getenv("MAX_UPLOAD_SIZE")
	if maxUploadSize == "" {
		maxUploadSize = "104857600"
	}
	maxSize, err := strconv.ParseInt(maxUploadSize, 10, 64)
	if err != nil {
		log.Fatal("Invalid MAX_UPLOAD_SIZE:", err)
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./zhengcoach.db"
	}

	ratePerSecond := 10.0
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			ratePerSecond = parsed
		}
	}

	localStorage, err := storage.NewLocalStorage(uploadDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	db, err := database.NewDB(database.Config{Path: dbPath})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}

	if _, err := os.Stat(migrationsPath); err == nil {
		log.Printf("Running database migrations from %s", migrationsPath)
		if err := db.RunMigrations(migrationsPath); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
	}

	app := &api.App{
		Storage:       localStorage,
		Records:       database.NewPracticeRecordRepository(db),
		Audio:         analyzer.MockAudioAnalyzer{},
		Hands:         analyzer.MockHandAnalyzer{},
		MaxUploadSize: maxSize,
	}

	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)*2)
	router := api.NewRouter(app, limiter)

	log.Printf("Analysis server starting on port %s", port)
	log.Printf("Upload directory: %s", uploadDir)
	log.Printf("Database path: %s", dbPath)
	log.Printf("Max upload size: %d bytes", maxSize)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}
