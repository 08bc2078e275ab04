package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/phrasebook/internal/globaltime"
)

// Backend is the durable record store behind the history. Batch operations
// are transactional: they apply fully or not at all. The backend is owned
// exclusively by the Store; no other component touches it directly.
type Backend interface {
	InsertRecords(ctx context.Context, records []Record) error
	GetRecord(ctx context.Context, id string) (Record, error)
	UpdateRecord(ctx context.Context, record Record) error
	DeleteRecords(ctx context.Context, ids []string) (int64, error)
	ClearRecords(ctx context.Context, keepFavorites bool) (int64, error)
	ListRecords(ctx context.Context) ([]Record, error)
}

// Store is the history query and mutation engine. Mutations on record ids are
// serialized through a single lock; queries run concurrently against backend
// snapshots.
type Store struct {
	backend Backend
	logger  zerolog.Logger

	mu   sync.RWMutex
	sort SortOption
}

func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		sort:    SortTimestampDescending,
	}
}

// Insert validates and persists one record, returning it unchanged. A blank
// id is assigned at creation and never reassigned; a zero timestamp is set
// from the clock.
func (s *Store) Insert(ctx context.Context, record Record) (Record, error) {
	if s == nil || s.backend == nil {
		return Record{}, fmt.Errorf("history store is not initialized")
	}

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = globaltime.UTC()
	}
	if err := record.Validate(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.InsertRecords(ctx, []Record{record}); err != nil {
		return Record{}, fmt.Errorf("insert history record: %w", err)
	}
	return record, nil
}

// ToggleFavorite flips the favorite flag. Missing ids fail with NotFound.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (Record, error) {
	return s.mutate(ctx, id, func(record Record) Record {
		return record.WithFavorite(!record.IsFavorite)
	})
}

// IncrementUsage bumps the usage counter and refreshes the last access time.
func (s *Store) IncrementUsage(ctx context.Context, id string) (Record, error) {
	now := globaltime.UTC()
	return s.mutate(ctx, id, func(record Record) Record {
		return record.WithUsageIncrement(now)
	})
}

// SetNote replaces the free-text note.
func (s *Store) SetNote(ctx context.Context, id, note string) (Record, error) {
	return s.mutate(ctx, id, func(record Record) Record {
		return record.WithNote(note)
	})
}

// AddTag appends one tag; RemoveTag drops it. Both fail with NotFound for
// missing ids.
func (s *Store) AddTag(ctx context.Context, id, tag string) (Record, error) {
	if strings.TrimSpace(tag) == "" {
		return Record{}, &InvalidRecordError{Field: "tag", Reason: "must not be blank"}
	}
	return s.mutate(ctx, id, func(record Record) Record {
		return record.WithTagAdded(tag)
	})
}

func (s *Store) RemoveTag(ctx context.Context, id, tag string) (Record, error) {
	return s.mutate(ctx, id, func(record Record) Record {
		return record.WithTagRemoved(tag)
	})
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if s == nil || s.backend == nil {
		return Record{}, fmt.Errorf("history store is not initialized")
	}
	record, err := s.backend.GetRecord(ctx, strings.TrimSpace(id))
	if err != nil {
		if IsNotFound(err) {
			return Record{}, notFound(strings.TrimSpace(id))
		}
		return Record{}, fmt.Errorf("get history record: %w", err)
	}
	return record, nil
}

// Delete removes one record. Missing ids fail with NotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteBatch(ctx, []string{id})
}

// DeleteBatch atomically removes the listed records. When any id is missing
// it fails with a NotFound naming every missing id and deletes nothing.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("history store is not initialized")
	}

	deduped := dedupeIDs(ids)
	if len(deduped) == 0 {
		return &InvalidRecordError{Field: "ids", Reason: "at least one record id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	missing := make([]string, 0)
	for _, id := range deduped {
		if _, err := s.backend.GetRecord(ctx, id); err != nil {
			if IsNotFound(err) {
				missing = append(missing, id)
				continue
			}
			return fmt.Errorf("check history record %s: %w", id, err)
		}
	}
	if len(missing) > 0 {
		return notFound(missing...)
	}

	if _, err := s.backend.DeleteRecords(ctx, deduped); err != nil {
		return fmt.Errorf("delete history records: %w", err)
	}
	return nil
}

// ClearAll removes every record, optionally keeping favorites. Returns the
// number of removed records.
func (s *Store) ClearAll(ctx context.Context, keepFavorites bool) (int64, error) {
	if s == nil || s.backend == nil {
		return 0, fmt.Errorf("history store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.backend.ClearRecords(ctx, keepFavorites)
	if err != nil {
		return 0, fmt.Errorf("clear history records: %w", err)
	}
	return removed, nil
}

// Search applies a case-insensitive substring match across the listed fields
// (all fields when none are given). A blank query matches everything.
// Results follow the store's current sort order.
func (s *Store) Search(ctx context.Context, query string, fields ...Field) ([]Record, error) {
	records, err := s.loadVisible(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]Record, 0, len(records))
	for _, record := range records {
		if MatchRecord(record, query, fields) {
			matched = append(matched, record)
		}
	}

	sortRecords(matched, s.currentSort())
	return matched, nil
}

// SortedBy sets the store's current sort order and returns all records in it.
func (s *Store) SortedBy(ctx context.Context, option SortOption) ([]Record, error) {
	if _, err := ParseSortOption(string(option)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sort = option
	s.mu.Unlock()

	return s.Search(ctx, "")
}

func (s *Store) currentSort() SortOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// loadVisible loads one backend snapshot and quarantines records that fail
// invariant re-validation instead of surfacing garbage. Quarantine is logged
// distinctly from NotFound.
func (s *Store) loadVisible(ctx context.Context) ([]Record, error) {
	if s == nil || s.backend == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}

	records, err := s.backend.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}

	visible := make([]Record, 0, len(records))
	for _, record := range records {
		if err := record.Validate(); err != nil {
			s.logger.Warn().
				Str("record_id", record.ID).
				Err(err).
				Msg("quarantined corrupted history record")
			continue
		}
		visible = append(visible, record)
	}
	return visible, nil
}

func (s *Store) mutate(ctx context.Context, id string, apply func(Record) Record) (Record, error) {
	if s == nil || s.backend == nil {
		return Record{}, fmt.Errorf("history store is not initialized")
	}

	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return Record{}, &InvalidRecordError{Field: "id", Reason: "must not be blank"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.backend.GetRecord(ctx, trimmedID)
	if err != nil {
		if IsNotFound(err) {
			return Record{}, notFound(trimmedID)
		}
		return Record{}, fmt.Errorf("get history record: %w", err)
	}

	updated := apply(record)
	if err := updated.Validate(); err != nil {
		return Record{}, err
	}
	if err := s.backend.UpdateRecord(ctx, updated); err != nil {
		if IsNotFound(err) {
			return Record{}, notFound(trimmedID)
		}
		return Record{}, fmt.Errorf("update history record: %w", err)
	}
	return updated, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	deduped := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		deduped = append(deduped, trimmed)
	}
	return deduped
}

// Bucket names one time-range partition for grouped display.
type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketThisWeek  Bucket = "this_week"
	BucketThisMonth Bucket = "this_month"
	BucketOlder     Bucket = "older"
)

var bucketOrder = []Bucket{BucketToday, BucketThisWeek, BucketThisMonth, BucketOlder}

// TimeGroup is one non-empty bucket with its members in the active sort order.
type TimeGroup struct {
	Bucket  Bucket   `json:"bucket"`
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

// GroupedByTime partitions the records matching the query into fixed-duration
// buckets. Boundaries are computed once per call against the clock, so a
// record near a boundary may shift buckets between two successive calls.
// Empty buckets are omitted.
func (s *Store) GroupedByTime(ctx context.Context, query string) ([]TimeGroup, error) {
	matched, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	now := globaltime.UTC()
	byBucket := make(map[Bucket][]Record, len(bucketOrder))
	for _, record := range matched {
		bucket := bucketFor(record.Timestamp, now)
		byBucket[bucket] = append(byBucket[bucket], record)
	}

	groups := make([]TimeGroup, 0, len(byBucket))
	for _, bucket := range bucketOrder {
		members := byBucket[bucket]
		if len(members) == 0 {
			continue
		}
		groups = append(groups, TimeGroup{
			Bucket:  bucket,
			Count:   len(members),
			Records: members,
		})
	}
	return groups, nil
}

// bucketFor uses fixed-duration thresholds rather than calendar boundaries.
func bucketFor(timestamp, now time.Time) Bucket {
	age := now.Sub(timestamp)
	switch {
	case age < 24*time.Hour:
		return BucketToday
	case age < 7*24*time.Hour:
		return BucketThisWeek
	case age < 30*24*time.Hour:
		return BucketThisMonth
	default:
		return BucketOlder
	}
}
