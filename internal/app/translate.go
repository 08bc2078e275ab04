package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"horse.fit/phrasebook/internal/cli"
	"horse.fit/phrasebook/internal/config"
	"horse.fit/phrasebook/internal/reader"
	"horse.fit/phrasebook/internal/translation"
)

func runTranslate(args []string) int {
	if len(args) == 0 {
		printTranslateUsage()
		return 2
	}

	target := strings.ToLower(strings.TrimSpace(args[0]))
	switch target {
	case "text", "url":
	default:
		fmt.Fprintf(os.Stderr, "Unknown translate target: %s\n\n", args[0])
		printTranslateUsage()
		return 2
	}

	fs := flag.NewFlagSet("translate "+target, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	from := fs.String("from", "auto", "Source language (ISO 639-1 or auto)")
	to := fs.String("to", "", "Target language (ISO 639-1, for example: en, zh)")
	provider := fs.String("provider", "", "Translation provider name (for example: remote, local)")
	noSave := fs.Bool("no-save", false, "Skip recording the translation in history")
	tags := fs.String("tags", "", "Comma-separated tags for the history record")
	notes := fs.String("notes", "", "Note for the history record")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "translate requires one argument")
		printTranslateUsage()
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	sourceLang := normalizeLanguageFlag(*from)
	targetLang := normalizeLanguageFlag(*to)
	if targetLang == "" {
		fmt.Fprintln(os.Stderr, "--to is required and must be a valid language code")
		return 2
	}

	argument := strings.TrimSpace(fs.Arg(0))
	if argument == "" {
		fmt.Fprintln(os.Stderr, "translate argument must not be empty")
		return 2
	}

	ctx, cancel, container, err := connectContainer(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer container.Close()

	text := argument
	if target == "url" {
		text, err = reader.FetchText(ctx, argument, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to extract page text: %v\n", err)
			return 1
		}
		if strings.TrimSpace(text) == "" {
			fmt.Fprintln(os.Stderr, "Page contains no readable text")
			return 1
		}
		maxChars := config.DefaultMaxQueryLength
		if cfg := container.Config(); cfg != nil && cfg.MaxQueryLength > 0 {
			maxChars = cfg.MaxQueryLength
		}
		if clipped, truncated := reader.TruncateText(text, maxChars); truncated {
			fmt.Fprintf(os.Stderr, "Warning: page text truncated to %d characters\n", maxChars)
			text = clipped
		}
	}

	pipeline, err := container.Pipeline(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize pipeline: %v\n", err)
		return 1
	}

	result, err := pipeline.Translate(ctx, translation.Input{
		Text:        text,
		SourceLang:  sourceLang,
		TargetLang:  targetLang,
		Provider:    strings.TrimSpace(*provider),
		Tags:        splitTagsFlag(*tags),
		Notes:       strings.TrimSpace(*notes),
		SkipHistory: *noSave,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		return 1
	}

	if result.PersistenceWarning != nil {
		fmt.Fprintf(os.Stderr, "Warning: translation succeeded but was not saved: %v\n", result.PersistenceWarning)
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("%s -> %s (%s)\n", result.SourceLanguage.Name, result.TargetLanguage.Name, result.Provider)
	fmt.Println(result.TranslatedText)
	if result.Confidence != nil {
		fmt.Printf("confidence=%.2f duration=%s\n", *result.Confidence, result.Duration.Round(time.Millisecond))
	} else {
		fmt.Printf("duration=%s\n", result.Duration.Round(time.Millisecond))
	}
	if result.Record != nil {
		fmt.Printf("saved as %s\n", result.Record.ID)
	}
	return 0
}

func splitTagsFlag(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func normalizeLanguageFlag(raw string) string {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if lang == "" {
		return ""
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	for _, r := range lang {
		if unicode.IsLetter(r) || r == '-' {
			continue
		}
		return ""
	}
	return lang
}

func printTranslateUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  phrasebook translate text <text> --to <lang> [--from auto] [--provider remote] [--no-save] [--tags a,b] [--notes text] [--format table] [--env .env] [--timeout 2m]")
	fmt.Fprintln(os.Stderr, "  phrasebook translate url <page_url> --to <lang> [--from auto] [--provider remote] [--no-save] [--tags a,b] [--notes text] [--format table] [--env .env] [--timeout 2m]")
}
