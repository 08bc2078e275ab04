package history

import (
	"testing"
	"time"
)

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	valid := testRecord("id-1", "hello", time.Now().UTC())
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Record)
	}{
		{"blank id", func(r *Record) { r.ID = " " }},
		{"blank original", func(r *Record) { r.OriginalText = "" }},
		{"blank translated", func(r *Record) { r.TranslatedText = "" }},
		{"auto target", func(r *Record) { r.TargetLanguageCode = "auto" }},
		{"same pair", func(r *Record) { r.SourceLanguageCode = "zh" }},
		{"blank provider", func(r *Record) { r.Provider = "" }},
		{"zero timestamp", func(r *Record) { r.Timestamp = time.Time{} }},
		{"negative usage", func(r *Record) { r.UsageCount = -1 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := testRecord("id-1", "hello", time.Now().UTC())
			tc.mutate(&record)
			if err := record.Validate(); !IsInvalidRecord(err) {
				t.Fatalf("expected InvalidRecordError, got %v", err)
			}
		})
	}
}

func TestRecordValidateAllowsAutoSource(t *testing.T) {
	t.Parallel()

	record := testRecord("id-1", "hello", time.Now().UTC())
	record.SourceLanguageCode = "auto"
	if err := record.Validate(); err != nil {
		t.Fatalf("auto source must validate: %v", err)
	}
}

func TestWithHelpersDoNotAliasTheOriginal(t *testing.T) {
	t.Parallel()

	original := testRecord("id-1", "hello", time.Now().UTC())
	original.Tags = []string{"one"}

	tagged := original.WithTagAdded("two")
	if len(original.Tags) != 1 {
		t.Fatalf("WithTagAdded mutated the original: %v", original.Tags)
	}
	if len(tagged.Tags) != 2 {
		t.Fatalf("unexpected tags on the copy: %v", tagged.Tags)
	}

	favored := original.WithFavorite(true)
	if original.IsFavorite {
		t.Fatalf("WithFavorite mutated the original")
	}
	if !favored.IsFavorite {
		t.Fatalf("WithFavorite lost the new value")
	}

	used := original.WithUsageIncrement(time.Now().UTC())
	if original.UsageCount != 0 || original.LastAccessTime != nil {
		t.Fatalf("WithUsageIncrement mutated the original")
	}
	if used.UsageCount != 1 || used.LastAccessTime == nil {
		t.Fatalf("unexpected usage copy: %+v", used)
	}
}

func TestLanguagePair(t *testing.T) {
	t.Parallel()

	record := testRecord("id-1", "hello", time.Now().UTC())
	record.SourceLanguageCode = "EN-us"
	if got := record.LanguagePair(); got != "en→zh" {
		t.Fatalf("unexpected language pair: %q", got)
	}
}
