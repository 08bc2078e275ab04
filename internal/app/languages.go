package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"horse.fit/phrasebook/internal/language"
)

func runLanguages(args []string) int {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

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

	options := language.Options()
	if outputFormat == outputFormatJSON {
		if err := printJSON(options); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode languages: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(options))
	for _, info := range options {
		rows = append(rows, []string{info.Code, info.Name, info.NativeName})
	}
	if err := writeTable([]string{"CODE", "NAME", "NATIVE"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
