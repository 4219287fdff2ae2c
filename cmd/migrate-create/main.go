package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Scaffolds a timestamped up/down SQL pair under db/migrations for the
// migrate command to apply.
func main() {
	name := flag.String("name", "", "short snake_case name for the migration")
	flag.Parse()

	if *name == "" {
		log.Fatal("usage: migrate-create -name <snake_case_name>")
	}
	if strings.ContainsAny(*name, " ") {
		log.Fatal("migration name must not contain spaces")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	migrationsDir := filepath.Join("db", "migrations")
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		log.Fatalf("create %s: %v", migrationsDir, err)
	}

	upPath := filepath.Join(migrationsDir, base+".up.sql")
	downPath := filepath.Join(migrationsDir, base+".down.sql")
	if err := createFile(upPath, "-- schema changes\n"); err != nil {
		log.Fatalf("scaffold up migration: %v", err)
	}
	if err := createFile(downPath, "-- revert schema changes\n"); err != nil {
		log.Fatalf("scaffold down migration: %v", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
}

func createFile(path, placeholder string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(placeholder), 0o644)
}
