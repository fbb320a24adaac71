package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}

	driver := os.Getenv("HISTORY_DRIVER")
	if driver != "postgres" && driver != "sqlite" {
		log.Fatalf("HISTORY_DRIVER must be postgres or sqlite, got %q", driver)
	}

	dsn := os.Getenv("HISTORY_DSN")
	if dsn == "" {
		log.Fatal("HISTORY_DSN environment variable is not set")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	migrationFile := "migrations/001_init.sql"
	if _, err := os.Stat(migrationFile); os.IsNotExist(err) {
		migrationFile = "../../migrations/001_init.sql"
	}

	if _, err := os.Stat(migrationFile); os.IsNotExist(err) {
		cwd, _ := os.Getwd()
		log.Fatalf("Could not find migration file '%s'. Current working directory: %s", migrationFile, cwd)
	}

	content, err := os.ReadFile(migrationFile)
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	log.Printf("Running %s migration from %s...", driver, migrationFile)
	if _, err := db.Exec(string(content)); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully!")
}
