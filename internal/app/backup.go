package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/phrasebook/internal/cli"
)

func runBackup(args []string) int {
	if len(args) == 0 {
		printBackupUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "export":
		return runBackupExport(args[1:])
	case "import":
		return runBackupImport(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown backup subcommand: %s\n\n", args[0])
		printBackupUsage()
		return 2
	}
}

func runBackupExport(args []string) int {
	fs := flag.NewFlagSet("backup export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	output := fs.String("out", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, cancel, container, err := connectContainer(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer container.Close()

	store, err := container.History(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
		return 1
	}

	payload, err := store.Export(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return 1
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode backup: %v\n", err)
		return 1
	}
	encoded = append(encoded, '\n')

	if strings.TrimSpace(*output) == "" {
		if _, err := os.Stdout.Write(encoded); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write backup: %v\n", err)
			return 1
		}
		return 0
	}

	if err := os.WriteFile(*output, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *output, err)
		return 1
	}
	fmt.Printf("exported %d record(s) to %s\n", len(payload.Records), *output)
	return 0
}

func runBackupImport(args []string) int {
	fs := flag.NewFlagSet("backup import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "backup import requires one backup file")
		printBackupUsage()
		return 2
	}

	path := strings.TrimSpace(fs.Arg(0))
	payload, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		return 1
	}

	ctx, cancel, container, err := connectContainer(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer container.Close()

	store, err := container.History(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
		return 1
	}

	imported, err := store.Import(ctx, json.RawMessage(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		return 1
	}

	fmt.Printf("imported %d record(s) from %s\n", imported, path)
	return 0
}

func printBackupUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  phrasebook backup export [--out backup.json] [--env .env] [--timeout 2m]")
	fmt.Fprintln(os.Stderr, "  phrasebook backup import <backup.json> [--env .env] [--timeout 2m]")
}
