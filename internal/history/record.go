// Package history persists translation records and serves the search, sort,
// grouping and batch-mutation operations over them.
package history

import (
	"sort"
	"strings"
	"time"

	"horse.fit/phrasebook/internal/language"
)

// Record is one persisted translation entry. Records are immutable by
// replacement: every mutation goes through a With* helper returning a new
// value with one field changed.
type Record struct {
	ID                 string     `json:"id"`
	OriginalText       string     `json:"original_text"`
	TranslatedText     string     `json:"translated_text"`
	SourceLanguageCode string     `json:"source_language_code"`
	TargetLanguageCode string     `json:"target_language_code"`
	SourceLanguageName string     `json:"source_language_name,omitempty"`
	TargetLanguageName string     `json:"target_language_name,omitempty"`
	Timestamp          time.Time  `json:"timestamp"`
	IsFavorite         bool       `json:"is_favorite"`
	Provider           string     `json:"provider"`
	UsageCount         int        `json:"usage_count"`
	LastAccessTime     *time.Time `json:"last_access_time,omitempty"`
	Tags               []string   `json:"tags,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

// Validate checks the record invariants required before persistence.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &InvalidRecordError{Field: "id", Reason: "must not be blank"}
	}
	if strings.TrimSpace(r.OriginalText) == "" {
		return &InvalidRecordError{Field: "original_text", Reason: "must not be blank"}
	}
	if strings.TrimSpace(r.TranslatedText) == "" {
		return &InvalidRecordError{Field: "translated_text", Reason: "must not be blank"}
	}
	if strings.TrimSpace(r.SourceLanguageCode) == "" {
		return &InvalidRecordError{Field: "source_language_code", Reason: "must not be blank"}
	}
	if strings.TrimSpace(r.TargetLanguageCode) == "" {
		return &InvalidRecordError{Field: "target_language_code", Reason: "must not be blank"}
	}
	if language.IsAuto(r.TargetLanguageCode) {
		return &InvalidRecordError{Field: "target_language_code", Reason: "must not be the auto-detect sentinel"}
	}
	if strings.TrimSpace(r.Provider) == "" {
		return &InvalidRecordError{Field: "provider", Reason: "must not be blank"}
	}
	if !language.IsAuto(r.SourceLanguageCode) &&
		language.NormalizeCode(r.SourceLanguageCode) == language.NormalizeCode(r.TargetLanguageCode) {
		return &InvalidRecordError{Field: "target_language_code", Reason: "must differ from the source language"}
	}
	if r.Timestamp.IsZero() {
		return &InvalidRecordError{Field: "timestamp", Reason: "must be set"}
	}
	if r.UsageCount < 0 {
		return &InvalidRecordError{Field: "usage_count", Reason: "must not be negative"}
	}
	return nil
}

// WithFavorite returns a copy with the favorite flag set to the given value.
func (r Record) WithFavorite(favorite bool) Record {
	updated := r.clone()
	updated.IsFavorite = favorite
	return updated
}

// WithUsageIncrement returns a copy with the usage counter bumped and the
// last access time refreshed.
func (r Record) WithUsageIncrement(now time.Time) Record {
	updated := r.clone()
	updated.UsageCount++
	access := now
	updated.LastAccessTime = &access
	return updated
}

// WithNote returns a copy with the free-text note replaced.
func (r Record) WithNote(note string) Record {
	updated := r.clone()
	updated.Notes = note
	return updated
}

// WithTagAdded returns a copy with the tag appended. Adding a tag the record
// already carries is a no-op; insertion order is preserved for display.
func (r Record) WithTagAdded(tag string) Record {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" || r.HasTag(trimmed) {
		return r.clone()
	}
	updated := r.clone()
	updated.Tags = append(updated.Tags, trimmed)
	return updated
}

// WithTagRemoved returns a copy without the tag.
func (r Record) WithTagRemoved(tag string) Record {
	updated := r.clone()
	if len(updated.Tags) == 0 {
		return updated
	}
	kept := make([]string, 0, len(updated.Tags))
	for _, existing := range updated.Tags {
		if strings.EqualFold(existing, strings.TrimSpace(tag)) {
			continue
		}
		kept = append(kept, existing)
	}
	updated.Tags = kept
	return updated
}

// HasTag reports whether the record carries the tag, ignoring case.
func (r Record) HasTag(tag string) bool {
	for _, existing := range r.Tags {
		if strings.EqualFold(existing, strings.TrimSpace(tag)) {
			return true
		}
	}
	return false
}

// LanguagePair renders the record's source→target code pair.
func (r Record) LanguagePair() string {
	return language.NormalizeCode(r.SourceLanguageCode) + "→" + language.NormalizeCode(r.TargetLanguageCode)
}

func (r Record) clone() Record {
	cloned := r
	if r.Tags != nil {
		cloned.Tags = append([]string(nil), r.Tags...)
	}
	if r.LastAccessTime != nil {
		access := *r.LastAccessTime
		cloned.LastAccessTime = &access
	}
	return cloned
}

// SortOption selects the ordering applied to query results.
type SortOption string

const (
	// SortTimestampDescending is the store default: newest first.
	SortTimestampDescending  SortOption = "timestamp_desc"
	SortUsageCountDescending SortOption = "usage_desc"
	SortAlphabetical         SortOption = "alphabetical"
	// SortLanguagePair groups by source→target pair, newest first per pair.
	SortLanguagePair SortOption = "language_pair"
)

// ParseSortOption resolves a user-supplied sort name.
func ParseSortOption(raw string) (SortOption, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "timestamp", "timestamp_desc", "newest":
		return SortTimestampDescending, nil
	case "usage", "usage_desc":
		return SortUsageCountDescending, nil
	case "alphabetical", "alpha":
		return SortAlphabetical, nil
	case "language_pair", "pair":
		return SortLanguagePair, nil
	default:
		return "", &InvalidRecordError{Field: "sort", Reason: "must be one of timestamp_desc, usage_desc, alphabetical, language_pair"}
	}
}

func sortRecords(records []Record, option SortOption) {
	switch option {
	case SortUsageCountDescending:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].UsageCount != records[j].UsageCount {
				return records[i].UsageCount > records[j].UsageCount
			}
			return records[i].Timestamp.After(records[j].Timestamp)
		})
	case SortAlphabetical:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].OriginalText) < strings.ToLower(records[j].OriginalText)
		})
	case SortLanguagePair:
		sort.SliceStable(records, func(i, j int) bool {
			left, right := records[i].LanguagePair(), records[j].LanguagePair()
			if left != right {
				return left < right
			}
			return records[i].Timestamp.After(records[j].Timestamp)
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp.After(records[j].Timestamp)
		})
	}
}

// Field names one searchable record field.
type Field string

const (
	FieldOriginalText   Field = "original_text"
	FieldTranslatedText Field = "translated_text"
	FieldLanguageNames  Field = "language_names"
	FieldTags           Field = "tags"
	FieldNotes          Field = "notes"
)

// DefaultSearchFields is the full searchable field set.
var DefaultSearchFields = []Field{
	FieldOriginalText,
	FieldTranslatedText,
	FieldLanguageNames,
	FieldTags,
	FieldNotes,
}

// MatchRecord applies a case-insensitive substring match across the listed
// fields. A blank query matches everything.
func MatchRecord(record Record, query string, fields []Field) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}

	contains := func(value string) bool {
		return strings.Contains(strings.ToLower(value), needle)
	}

	for _, field := range fields {
		switch field {
		case FieldOriginalText:
			if contains(record.OriginalText) {
				return true
			}
		case FieldTranslatedText:
			if contains(record.TranslatedText) {
				return true
			}
		case FieldLanguageNames:
			if contains(record.SourceLanguageName) || contains(record.TargetLanguageName) {
				return true
			}
		case FieldTags:
			for _, tag := range record.Tags {
				if contains(tag) {
					return true
				}
			}
		case FieldNotes:
			if contains(record.Notes) {
				return true
			}
		}
	}
	return false
}
