package main

import (
	"fmt"
	"log"

	"hospicrm-migrator/internal/config"
	"hospicrm-migrator/internal/database"
)

// Read-only probe for operators checking a finished migration run:
// prints per-table row counts plus a few sample identifiers.
func main() {
	cfg := config.Load()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	tables := []struct {
		name     string
		idColumn string
	}{
		{"departments", "department_id"},
		{"doctors", "doctor_id"},
		{"patients", "patient_id"},
		{"beds", "bed_number"},
		{"transactions", "transaction_id"},
	}

	for _, table := range tables {
		var count int64
		if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table.name)).Scan(&count); err != nil {
			log.Fatalf("Failed to count %s: %v", table.name, err)
		}
		fmt.Printf("=== %s: %d rows ===\n", table.name, count)

		rows, err := db.Query(fmt.Sprintf(`SELECT %s::text FROM %s LIMIT 5`, table.idColumn, table.name))
		if err != nil {
			log.Fatalf("Failed to sample %s: %v", table.name, err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				log.Fatalf("Failed to read %s row: %v", table.name, err)
			}
			fmt.Printf("  %s\n", id)
		}
		rows.Close()
		fmt.Println()
	}
}
