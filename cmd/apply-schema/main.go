package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"hospicrm-migrator/internal/config"
	"hospicrm-migrator/internal/database"
)

// Applies a target-schema SQL file statement by statement. Run once before
// the first migration; the schema uses IF NOT EXISTS throughout so
// re-applying is harmless.
func main() {
	schemaFile := "scripts/target_schema.sql"
	if len(os.Args) > 1 {
		schemaFile = os.Args[1]
	}

	sqlContent, err := os.ReadFile(schemaFile)
	if err != nil {
		log.Fatalf("Failed to read schema file: %v", err)
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	statements := splitStatements(string(sqlContent))
	for i, stmt := range statements {
		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Printf("Schema applied: %d statements\n", len(statements))
}

// splitStatements splits a schema file into executable statements.
// Comment lines are stripped before splitting on ";": a comment block
// sitting directly above a statement must not swallow the statement it
// is glued to.
func splitStatements(sqlText string) []string {
	var stripped strings.Builder
	for _, line := range strings.Split(sqlText, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		stripped.WriteString(line)
		stripped.WriteString("\n")
	}

	var statements []string
	for _, stmt := range strings.Split(stripped.String(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
