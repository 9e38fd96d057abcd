package db

import (
	"fmt"
	"io"
)

// RunMigrateCommand handles the 'migrate' subcommand: up, down or status
// against the database at dbPath.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("migrate action is required")
	}

	// Open without NewDB so the schema is left to the chosen action.
	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	migrations := MigrationsFS()
	switch args[0] {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		fmt.Fprintln(out, "All migrations applied")
	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		fmt.Fprintln(out, "Rolled back one migration")
	case "status":
	case "help":
		PrintMigrateHelp(out)
		return nil
	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", args[0])
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Fprintf(out, "Schema version: %d", version)
	if dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)
	return nil
}

// PrintMigrateHelp writes the migrate subcommand usage.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: viewer [-db path] migrate <action>

Actions:
  up       Apply all pending migrations
  down     Roll back the most recent migration
  status   Show the current schema version
  help     Show this help
`)
}
