package main

import (
	"database/sql"
	"dispatch-board-service/internal/adapters/repositories"
	"dispatch-board-service/internal/config"
	"dispatch-board-service/internal/platform/db"
	"log"
	"strings"

	"github.com/joho/godotenv"
)

// dbtool prepares the local fleet snapshot and, when DATABASE_URL is set,
// the shared preferences table.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/fleet.json")

	sqlite, err := db.Open(db.DriverSqlite, dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlite.Close()

	if err := initAndSeed(sqlite, seedPath); err != nil {
		log.Fatal(err)
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Println("DATABASE_URL not set, skipping postgres preferences schema.")
		return
	}

	pg, err := db.Open(db.DriverPostgres, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	log.Println("Initializing postgres preferences schema...")
	if err := repositories.InitPostgresSchema(pg); err != nil {
		log.Fatalf("postgres schema initialization failed: %v", err)
	}
	log.Println("Postgres schema ready.")
}

func initAndSeed(db *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(db); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	if err := repositories.SeedFromJSON(db, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
