package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"horse.fit/phrasebook/internal/cli"
	"horse.fit/phrasebook/internal/history"
)

func runHistory(args []string) int {
	if len(args) == 0 {
		printHistoryUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "list":
		return runHistoryList(args[1:])
	case "groups":
		return runHistoryGroups(args[1:])
	case "show":
		return runHistoryShow(args[1:])
	case "favorite":
		return runHistoryFavorite(args[1:])
	case "usage":
		return runHistoryUsage(args[1:])
	case "note":
		return runHistoryNote(args[1:])
	case "tag":
		return runHistoryTag(args[1:])
	case "delete":
		return runHistoryDelete(args[1:])
	case "clear":
		return runHistoryClear(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown history subcommand: %s\n\n", args[0])
		printHistoryUsage()
		return 2
	}
}

func runHistoryList(args []string) int {
	fs := flag.NewFlagSet("history list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	query := fs.String("q", "", "Search query (case-insensitive substring)")
	fieldsFlag := fs.String("fields", "", "Comma-separated search fields (default: all)")
	sortFlag := fs.String("sort", "", "Sort order: timestamp_desc, usage_desc, alphabetical, language_pair")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	var fields []history.Field
	if trimmed := strings.TrimSpace(*fieldsFlag); trimmed != "" {
		for _, part := range strings.Split(trimmed, ",") {
			field := history.Field(strings.TrimSpace(part))
			if field != "" {
				fields = append(fields, field)
			}
		}
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

	if rawSort := strings.TrimSpace(*sortFlag); rawSort != "" {
		option, parseErr := history.ParseSortOption(rawSort)
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, parseErr)
			return 2
		}
		if _, err := store.SortedBy(ctx, option); err != nil {
			fmt.Fprintf(os.Stderr, "History list failed: %v\n", err)
			return 1
		}
	}

	records, err := store.Search(ctx, *query, fields...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History list failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(records); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode records: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, historyTableRow(record))
	}
	if err := writeTable(historyTableHeaders(), rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	fmt.Printf("%d record(s)\n", len(records))
	return 0
}

func runHistoryGroups(args []string) int {
	fs := flag.NewFlagSet("history groups", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	query := fs.String("q", "", "Search query (case-insensitive substring)")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
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

	groups, err := store.GroupedByTime(ctx, *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History groups failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(groups); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode groups: %v\n", err)
			return 1
		}
		return 0
	}

	for _, group := range groups {
		fmt.Printf("%s (%d)\n", group.Bucket, group.Count)
		for _, record := range group.Records {
			fmt.Printf("  %s  %s  %s\n",
				record.ID,
				record.LanguagePair(),
				truncateForTable(record.OriginalText, 48),
			)
		}
	}
	return 0
}

func runHistoryShow(args []string) int {
	return withHistoryRecord("history show", args, (*history.Store).Get)
}

func runHistoryFavorite(args []string) int {
	return withHistoryRecord("history favorite", args, (*history.Store).ToggleFavorite)
}

func runHistoryUsage(args []string) int {
	return withHistoryRecord("history usage", args, (*history.Store).IncrementUsage)
}

// withHistoryRecord runs one single-id history operation with the shared
// flag parsing and error reporting.
func withHistoryRecord(name string, args []string, apply func(*history.Store, context.Context, string) (history.Record, error)) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s requires one record id\n", name)
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

	record, err := apply(store, ctx, strings.TrimSpace(fs.Arg(0)))
	if err != nil {
		return reportHistoryError(name, err)
	}
	return printRecordOutcome(record)
}

func runHistoryNote(args []string) int {
	fs := flag.NewFlagSet("history note", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	note := fs.String("text", "", "Note text (empty clears the note)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "history note requires one record id")
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

	record, err := store.SetNote(ctx, strings.TrimSpace(fs.Arg(0)), *note)
	if err != nil {
		return reportHistoryError("history note", err)
	}
	return printRecordOutcome(record)
}

func runHistoryTag(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  phrasebook history tag add <record_id> <tag> [--env .env] [--timeout 30s]")
		fmt.Fprintln(os.Stderr, "  phrasebook history tag remove <record_id> <tag> [--env .env] [--timeout 30s]")
		return 2
	}

	action := strings.ToLower(strings.TrimSpace(args[0]))
	switch action {
	case "add", "remove":
	default:
		fmt.Fprintf(os.Stderr, "Unknown tag action: %s\n", args[0])
		return 2
	}

	fs := flag.NewFlagSet("history tag "+action, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "history tag requires a record id and a tag")
		return 2
	}

	id := strings.TrimSpace(fs.Arg(0))
	tag := strings.TrimSpace(fs.Arg(1))
	if tag == "" {
		fmt.Fprintln(os.Stderr, "tag must not be blank")
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

	var record history.Record
	if action == "add" {
		record, err = store.AddTag(ctx, id, tag)
	} else {
		record, err = store.RemoveTag(ctx, id, tag)
	}
	if err != nil {
		return reportHistoryError("history tag "+action, err)
	}
	return printRecordOutcome(record)
}

func runHistoryDelete(args []string) int {
	fs := flag.NewFlagSet("history delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "history delete requires at least one record id")
		return 2
	}

	ids := make([]string, 0, fs.NArg())
	for _, arg := range fs.Args() {
		id := strings.TrimSpace(arg)
		if id != "" {
			ids = append(ids, id)
		}
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

	if err := store.DeleteBatch(ctx, ids); err != nil {
		return reportHistoryError("history delete", err)
	}
	fmt.Printf("deleted %d record(s)\n", len(ids))
	return 0
}

func runHistoryClear(args []string) int {
	fs := flag.NewFlagSet("history clear", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	keepFavorites := fs.Bool("keep-favorites", false, "Keep favorited records")
	confirm := fs.Bool("yes", false, "Confirm the clear without prompting")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if !*confirm {
		fmt.Fprintln(os.Stderr, "history clear is destructive; pass --yes to confirm")
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

	cleared, err := store.ClearAll(ctx, *keepFavorites)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History clear failed: %v\n", err)
		return 1
	}
	fmt.Printf("cleared %d record(s) keep_favorites=%t\n", cleared, *keepFavorites)
	return 0
}

func historyTableHeaders() []string {
	return []string{"ID", "PAIR", "ORIGINAL", "TRANSLATED", "FAV", "USES", "TIMESTAMP"}
}

func historyTableRow(record history.Record) []string {
	favorite := ""
	if record.IsFavorite {
		favorite = "*"
	}
	return []string{
		record.ID,
		record.LanguagePair(),
		truncateForTable(record.OriginalText, 32),
		truncateForTable(record.TranslatedText, 32),
		favorite,
		strconv.Itoa(record.UsageCount),
		formatUTCTimestamp(record.Timestamp),
	}
}

func printRecordOutcome(record history.Record) int {
	if err := printJSON(record); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode record: %v\n", err)
		return 1
	}
	return 0
}

func reportHistoryError(op string, err error) int {
	if history.IsNotFound(err) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", op, err)
	return 1
}

func printHistoryUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  phrasebook history list [--q query] [--fields original_text,tags] [--sort usage_desc] [--format table]")
	fmt.Fprintln(os.Stderr, "  phrasebook history groups [--q query] [--format table]")
	fmt.Fprintln(os.Stderr, "  phrasebook history show <record_id>")
	fmt.Fprintln(os.Stderr, "  phrasebook history favorite <record_id>")
	fmt.Fprintln(os.Stderr, "  phrasebook history usage <record_id>")
	fmt.Fprintln(os.Stderr, "  phrasebook history note <record_id> --text \"note\"")
	fmt.Fprintln(os.Stderr, "  phrasebook history tag add|remove <record_id> <tag>")
	fmt.Fprintln(os.Stderr, "  phrasebook history delete <record_id> [record_id ...]")
	fmt.Fprintln(os.Stderr, "  phrasebook history clear --yes [--keep-favorites]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "All subcommands accept [--env .env] and [--timeout 30s].")
}
