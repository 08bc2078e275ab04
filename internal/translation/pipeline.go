package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/phrasebook/internal/config"
	"horse.fit/phrasebook/internal/globaltime"
	"horse.fit/phrasebook/internal/history"
	"horse.fit/phrasebook/internal/language"
)

// HistorySaver persists successful translations. Save failures are reported
// as a warning on the result, never as a pipeline failure.
type HistorySaver interface {
	Insert(ctx context.Context, record history.Record) (history.Record, error)
}

// Input is one translation request from a caller.
type Input struct {
	Text       string
	SourceLang string
	TargetLang string
	Provider   string
	Tags       []string
	Notes      string
	// SkipHistory suppresses the optional history insert for this call.
	SkipHistory bool
}

// Pipeline orchestrates one translation call: validate input, build the
// signed request, invoke the transport, map the response, and optionally
// persist the result. It imposes no timeout and performs no retries of its
// own; both belong to the transport or the caller.
type Pipeline struct {
	registry       *Registry
	creds          Credentials
	maxQueryLength int
	store          HistorySaver
	logger         zerolog.Logger
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Credentials    Credentials
	MaxQueryLength int
	Store          HistorySaver
	Logger         zerolog.Logger
}

func NewPipeline(registry *Registry, opts PipelineOptions) *Pipeline {
	maxQueryLength := opts.MaxQueryLength
	if maxQueryLength <= 0 {
		maxQueryLength = config.DefaultMaxQueryLength
	}
	return &Pipeline{
		registry:       registry,
		creds:          opts.Credentials,
		maxQueryLength: maxQueryLength,
		store:          opts.Store,
		logger:         opts.Logger,
	}
}

// Translate runs one request end to end. Validation failures never reach the
// transport. A transport cancellation or timeout surfaces as TransportError.
func (p *Pipeline) Translate(ctx context.Context, input Input) (*Result, error) {
	if p == nil || p.registry == nil {
		return nil, fmt.Errorf("translation pipeline is not initialized")
	}

	query := input.Text
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be blank"}
	}
	if utf8.RuneCountInString(query) > p.maxQueryLength {
		return nil, &ValidationError{
			Field:  "query",
			Reason: fmt.Sprintf("must not exceed %d characters", p.maxQueryLength),
		}
	}

	source := language.NormalizeCode(input.SourceLang)
	if source == "" {
		source = language.AutoCode
	}
	target := language.NormalizeCode(input.TargetLang)
	if target == "" {
		return nil, &ValidationError{Field: "target_lang", Reason: "is required"}
	}
	if target == language.AutoCode {
		return nil, &ValidationError{Field: "target_lang", Reason: "must not be the auto-detect sentinel"}
	}
	if source == target {
		return nil, &ValidationError{Field: "target_lang", Reason: "must differ from the source language"}
	}

	transport, err := p.registry.Transport(input.Provider)
	if err != nil {
		return nil, &ValidationError{Field: "provider", Reason: err.Error()}
	}

	req := BuildSignedRequest(query, source, target, p.creds)
	requestedAt := globaltime.UTC()

	resp, err := transport.Send(ctx, req)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return nil, err
		}
		return nil, &TransportError{Op: transport.Name(), Err: err}
	}

	result, err := MapResponse(resp, query, requestedAt)
	if err != nil {
		return nil, err
	}
	result.Provider = transport.Name()
	result.Duration = globaltime.UTC().Sub(requestedAt)

	if p.store != nil && !input.SkipHistory {
		p.persist(ctx, input, result)
	}
	return result, nil
}

// persist saves the completed translation. A persistence failure does not
// invalidate the already-successful result; it is attached as a warning so
// the caller can retry or ignore the save independently.
func (p *Pipeline) persist(ctx context.Context, input Input, result *Result) {
	record := history.Record{
		ID:                 uuid.NewString(),
		OriginalText:       result.OriginalText,
		TranslatedText:     result.TranslatedText,
		SourceLanguageCode: result.SourceLanguage.Code,
		TargetLanguageCode: result.TargetLanguage.Code,
		SourceLanguageName: result.SourceLanguage.Name,
		TargetLanguageName: result.TargetLanguage.Name,
		Timestamp:          result.Timestamp,
		Provider:           result.Provider,
		Tags:               input.Tags,
		Notes:              input.Notes,
	}

	saved, err := p.store.Insert(ctx, record)
	if err != nil {
		result.PersistenceWarning = err
		p.logger.Warn().
			Err(err).
			Str("provider", result.Provider).
			Msg("history save failed for successful translation")
		return
	}
	result.Record = &saved
}
