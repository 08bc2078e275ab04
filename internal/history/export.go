package history

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"horse.fit/phrasebook/internal/globaltime"
)

//go:embed history_export.schema.json
var exportSchemaJSON string

// ExportPayloadVersion is the current export format version.
const ExportPayloadVersion = "1"

// ExportPayload is the schema-validated JSON envelope for history backups.
type ExportPayload struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Records    []Record  `json:"records"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// Export snapshots every visible record into a backup payload, in the
// store's current sort order.
func (s *Store) Export(ctx context.Context) (*ExportPayload, error) {
	records, err := s.Search(ctx, "")
	if err != nil {
		return nil, err
	}
	return &ExportPayload{
		Version:    ExportPayloadVersion,
		ExportedAt: globaltime.UTC(),
		Records:    records,
	}, nil
}

// Import restores records from a backup payload. The whole import is
// all-or-nothing: every record must validate and no id may collide with the
// payload itself or the store, otherwise nothing is inserted. Returns the
// number of imported records.
func (s *Store) Import(ctx context.Context, payload json.RawMessage) (int, error) {
	if s == nil || s.backend == nil {
		return 0, fmt.Errorf("history store is not initialized")
	}

	parsed, err := ValidateExportPayload(payload)
	if err != nil {
		return 0, err
	}
	if len(parsed.Records) == 0 {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(parsed.Records))
	for _, record := range parsed.Records {
		if err := record.Validate(); err != nil {
			return 0, fmt.Errorf("record %s: %w", record.ID, err)
		}
		if _, dup := seen[record.ID]; dup {
			return 0, fmt.Errorf("duplicate record id in payload: %s", record.ID)
		}
		seen[record.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range parsed.Records {
		if _, err := s.backend.GetRecord(ctx, record.ID); err == nil {
			return 0, fmt.Errorf("record id already exists in history: %s", record.ID)
		} else if !IsNotFound(err) {
			return 0, fmt.Errorf("check history record %s: %w", record.ID, err)
		}
	}

	if err := s.backend.InsertRecords(ctx, parsed.Records); err != nil {
		return 0, fmt.Errorf("import history records: %w", err)
	}
	return len(parsed.Records), nil
}

// ValidateExportPayload strictly decodes and schema-validates a backup
// payload before unmarshalling it.
func ValidateExportPayload(payload json.RawMessage) (*ExportPayload, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadExportSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var parsed ExportPayload
	if err := json.Unmarshal(normalized, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if strings.TrimSpace(parsed.Version) != ExportPayloadVersion {
		return nil, fmt.Errorf("unsupported export payload version %q", parsed.Version)
	}
	return &parsed, nil
}

func decodeStrictJSON(payload json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := ensureSingleDocument(decoder); err != nil {
		return nil, err
	}
	return value, nil
}

func ensureSingleDocument(decoder *json.Decoder) error {
	if _, err := decoder.Token(); err != io.EOF {
		return fmt.Errorf("payload contains trailing data")
	}
	return nil
}

func loadExportSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7
		if err := compiler.AddResource("history_export.schema.json", strings.NewReader(exportSchemaJSON)); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("history_export.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}
