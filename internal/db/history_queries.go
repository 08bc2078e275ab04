package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"horse.fit/phrasebook/internal/history"
)

// Pool implements history.Backend. All mutations run inside transactions so
// reads never observe a partially-applied batch.

const historyRecordColumns = `
	r.record_id::text,
	r.original_text,
	r.translated_text,
	r.source_language_code,
	r.target_language_code,
	r.source_language_name,
	r.target_language_name,
	r.timestamp,
	r.is_favorite,
	r.provider,
	r.usage_count,
	r.last_access_time,
	r.tags,
	r.notes
`

func (p *Pool) InsertRecords(ctx context.Context, records []history.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
INSERT INTO phrasebook.translation_records (
	record_id,
	original_text,
	translated_text,
	source_language_code,
	target_language_code,
	source_language_name,
	target_language_name,
	"timestamp",
	is_favorite,
	provider,
	usage_count,
	last_access_time,
	tags,
	notes
)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14)
`

	for _, record := range records {
		tags, err := marshalTags(record.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags for record %s: %w", record.ID, err)
		}
		if _, err := tx.Exec(
			ctx,
			q,
			record.ID,
			record.OriginalText,
			record.TranslatedText,
			record.SourceLanguageCode,
			record.TargetLanguageCode,
			record.SourceLanguageName,
			record.TargetLanguageName,
			record.Timestamp.UTC(),
			record.IsFavorite,
			record.Provider,
			record.UsageCount,
			nullableTime(record.LastAccessTime),
			tags,
			record.Notes,
		); err != nil {
			return fmt.Errorf("insert translation record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *Pool) GetRecord(ctx context.Context, id string) (history.Record, error) {
	const q = `
SELECT ` + historyRecordColumns + `
FROM phrasebook.translation_records r
WHERE r.record_id = $1::uuid
LIMIT 1
`

	record, err := scanHistoryRecord(p.QueryRow(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if IsNoRows(err) {
			return history.Record{}, history.ErrNotExist
		}
		return history.Record{}, fmt.Errorf("query translation record: %w", err)
	}
	return record, nil
}

func (p *Pool) UpdateRecord(ctx context.Context, record history.Record) error {
	tags, err := marshalTags(record.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags for record %s: %w", record.ID, err)
	}

	const q = `
UPDATE phrasebook.translation_records
SET
	original_text = $2,
	translated_text = $3,
	source_language_code = $4,
	target_language_code = $5,
	source_language_name = $6,
	target_language_name = $7,
	"timestamp" = $8,
	is_favorite = $9,
	provider = $10,
	usage_count = $11,
	last_access_time = $12,
	tags = $13::jsonb,
	notes = $14,
	updated_at = now()
WHERE record_id = $1::uuid
`

	tag, err := p.Exec(
		ctx,
		q,
		record.ID,
		record.OriginalText,
		record.TranslatedText,
		record.SourceLanguageCode,
		record.TargetLanguageCode,
		record.SourceLanguageName,
		record.TargetLanguageName,
		record.Timestamp.UTC(),
		record.IsFavorite,
		record.Provider,
		record.UsageCount,
		nullableTime(record.LastAccessTime),
		tags,
		record.Notes,
	)
	if err != nil {
		return fmt.Errorf("update translation record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotExist
	}
	return nil
}

func (p *Pool) DeleteRecords(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
DELETE FROM phrasebook.translation_records
WHERE record_id = $1::uuid
`

	var deleted int64
	for _, id := range ids {
		tag, err := tx.Exec(ctx, q, strings.TrimSpace(id))
		if err != nil {
			return 0, fmt.Errorf("delete translation record %s: %w", id, err)
		}
		deleted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return deleted, nil
}

func (p *Pool) ClearRecords(ctx context.Context, keepFavorites bool) (int64, error) {
	const q = `
DELETE FROM phrasebook.translation_records
WHERE $1 = false
   OR is_favorite = false
`

	tag, err := p.Exec(ctx, q, keepFavorites)
	if err != nil {
		return 0, fmt.Errorf("clear translation records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Pool) ListRecords(ctx context.Context) ([]history.Record, error) {
	const q = `
SELECT ` + historyRecordColumns + `
FROM phrasebook.translation_records r
ORDER BY r.timestamp DESC, r.record_id
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query translation records: %w", err)
	}
	defer rows.Close()

	records := make([]history.Record, 0, 64)
	for rows.Next() {
		record, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan translation record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translation records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryRecord(row rowScanner) (history.Record, error) {
	var (
		record     history.Record
		lastAccess *time.Time
		rawTags    []byte
	)
	if err := row.Scan(
		&record.ID,
		&record.OriginalText,
		&record.TranslatedText,
		&record.SourceLanguageCode,
		&record.TargetLanguageCode,
		&record.SourceLanguageName,
		&record.TargetLanguageName,
		&record.Timestamp,
		&record.IsFavorite,
		&record.Provider,
		&record.UsageCount,
		&lastAccess,
		&rawTags,
		&record.Notes,
	); err != nil {
		return history.Record{}, err
	}

	record.LastAccessTime = lastAccess
	tags, err := unmarshalTags(rawTags)
	if err != nil {
		return history.Record{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	record.Tags = tags
	return record, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func unmarshalTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}
