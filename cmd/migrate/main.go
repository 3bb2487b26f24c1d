package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"bridgeguard/internal/database"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "create" {
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate create <migration_name>")
		}
		createMigration(getEnv("MIGRATIONS_PATH", "./migrations"), os.Args[2])
		return
	}

	db, err := sql.Open("pgx", database.ConnString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")

	switch command {
	case "up":
		log.Println("Running migrations...")
		if err := database.RunMigrations(db, migrationsPath); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")

	case "down":
		log.Println("Rolling back last migration...")
		if err := database.RollbackMigration(db, migrationsPath); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rollback completed successfully")

	case "version":
		version, dirty, err := database.GetMigrationVersion(db, migrationsPath)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		if dirty {
			log.Printf("Current version: %d (DIRTY - needs manual intervention)", version)
		} else {
			log.Printf("Current version: %d", version)
		}

	default:
		log.Printf("Unknown command: %s", command)
		printUsage()
		os.Exit(1)
	}
}

func createMigration(dir, name string) {
	files, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("Failed to read migrations directory: %v", err)
	}

	// every version has an up and a down file
	sqlFiles := 0
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".sql" {
			sqlFiles++
		}
	}
	nextVersion := sqlFiles/2 + 1

	upFile := filepath.Join(dir, fmt.Sprintf("%06d_%s.up.sql", nextVersion, name))
	downFile := filepath.Join(dir, fmt.Sprintf("%06d_%s.down.sql", nextVersion, name))

	upContent := fmt.Sprintf("-- Migration: %s\n-- Created: %s\n\n-- Add your SQL here\n", name, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(upFile, []byte(upContent), 0644); err != nil {
		log.Fatalf("Failed to create up migration: %v", err)
	}
	downContent := fmt.Sprintf("-- Rollback: %s\n\n-- Add your rollback SQL here\n", name)
	if err := os.WriteFile(downFile, []byte(downContent), 0644); err != nil {
		log.Fatalf("Failed to create down migration: %v", err)
	}

	log.Printf("Created migration files:")
	log.Printf("   - %s", upFile)
	log.Printf("   - %s", downFile)
}

func printUsage() {
	fmt.Println("bridgeguard database migration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate up              Run all pending migrations")
	fmt.Println("  migrate down            Rollback the last migration")
	fmt.Println("  migrate version         Show current migration version")
	fmt.Println("  migrate create <name>   Create a new migration file")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  BLUEPRINT_DB_HOST       Database host")
	fmt.Println("  BLUEPRINT_DB_PORT       Database port")
	fmt.Println("  BLUEPRINT_DB_DATABASE   Database name")
	fmt.Println("  BLUEPRINT_DB_USERNAME   Database user")
	fmt.Println("  BLUEPRINT_DB_PASSWORD   Database password")
	fmt.Println("  BLUEPRINT_DB_SCHEMA     Schema (default: public)")
	fmt.Println("  MIGRATIONS_PATH         Path to migrations (default: ./migrations)")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
