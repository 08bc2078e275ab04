package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/phrasebook/internal/history"
)

type stubTransport struct {
	name     string
	calls    int
	lastReq  *SignedRequest
	response *RawResponse
	err      error
}

func (s *stubTransport) Send(_ context.Context, req *SignedRequest) (*RawResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubTransport) Name() string { return s.name }

type stubSaver struct {
	inserted []history.Record
	err      error
}

func (s *stubSaver) Insert(_ context.Context, record history.Record) (history.Record, error) {
	if s.err != nil {
		return history.Record{}, s.err
	}
	s.inserted = append(s.inserted, record)
	return record, nil
}

func newTestPipeline(transport Transport, saver HistorySaver) *Pipeline {
	registry := NewRegistry("")
	_ = registry.Register(transport)
	return NewPipeline(registry, PipelineOptions{
		Store:  saver,
		Logger: zerolog.Nop(),
	})
}

func helloResponse() *RawResponse {
	return &RawResponse{
		From:        "en",
		To:          "zh",
		TransResult: []TransSegment{{Src: "hello world", Dst: "你好世界"}},
	}
}

func TestTranslateSuccessSavesHistory(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{name: "remote", response: helloResponse()}
	saver := &stubSaver{}
	pipeline := newTestPipeline(transport, saver)

	result, err := pipeline.Translate(context.Background(), Input{
		Text:       "hello world",
		TargetLang: "zh",
		Tags:       []string{"greeting"},
		Notes:      "demo",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if result.TranslatedText != "你好世界" {
		t.Fatalf("unexpected translation: %q", result.TranslatedText)
	}
	if result.Provider != "remote" {
		t.Fatalf("unexpected provider: %q", result.Provider)
	}
	if transport.calls != 1 {
		t.Fatalf("expected one transport call, got %d", transport.calls)
	}
	if transport.lastReq.From != "auto" {
		t.Fatalf("blank source must default to auto, got %q", transport.lastReq.From)
	}

	if len(saver.inserted) != 1 {
		t.Fatalf("expected one saved record, got %d", len(saver.inserted))
	}
	record := saver.inserted[0]
	if record.ID == "" {
		t.Fatalf("expected generated record id")
	}
	if record.OriginalText != "hello world" || record.TranslatedText != "你好世界" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.SourceLanguageCode != "en" || record.TargetLanguageCode != "zh" {
		t.Fatalf("unexpected record language pair: %+v", record)
	}
	if len(record.Tags) != 1 || record.Tags[0] != "greeting" || record.Notes != "demo" {
		t.Fatalf("expected tags and notes to carry over: %+v", record)
	}
	if result.Record == nil || result.Record.ID != record.ID {
		t.Fatalf("expected result to reference the saved record")
	}
	if result.PersistenceWarning != nil {
		t.Fatalf("unexpected persistence warning: %v", result.PersistenceWarning)
	}
}

func TestTranslateValidationNeverReachesTransport(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input Input
		field string
	}{
		{"blank query", Input{Text: "   \n", TargetLang: "zh"}, "query"},
		{"missing target", Input{Text: "hello"}, "target_lang"},
		{"auto target", Input{Text: "hello", TargetLang: "auto"}, "target_lang"},
		{"same pair", Input{Text: "hello", SourceLang: "en", TargetLang: "en"}, "target_lang"},
		{"unknown provider", Input{Text: "hello", TargetLang: "zh", Provider: "nope"}, "provider"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			transport := &stubTransport{name: "remote", response: helloResponse()}
			pipeline := newTestPipeline(transport, nil)

			_, err := pipeline.Translate(context.Background(), tc.input)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, validationErr.Field)
			}
			if transport.calls != 0 {
				t.Fatalf("validation failure must not call the transport")
			}
		})
	}
}

func TestTranslateRejectsOverlongQuery(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{name: "remote", response: helloResponse()}
	registry := NewRegistry("")
	_ = registry.Register(transport)
	pipeline := NewPipeline(registry, PipelineOptions{
		MaxQueryLength: 10,
		Logger:         zerolog.Nop(),
	})

	_, err := pipeline.Translate(context.Background(), Input{
		Text:       strings.Repeat("汉", 11),
		TargetLang: "en",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if transport.calls != 0 {
		t.Fatalf("validation failure must not call the transport")
	}

	if _, err := pipeline.Translate(context.Background(), Input{
		Text:       strings.Repeat("汉", 10),
		TargetLang: "en",
	}); err != nil {
		t.Fatalf("query at the limit must pass: %v", err)
	}
}

func TestTranslatePersistenceFailureIsAWarning(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{name: "remote", response: helloResponse()}
	saver := &stubSaver{err: fmt.Errorf("disk full")}
	pipeline := newTestPipeline(transport, saver)

	result, err := pipeline.Translate(context.Background(), Input{
		Text:       "hello world",
		TargetLang: "zh",
	})
	if err != nil {
		t.Fatalf("persistence failure must not fail the translation: %v", err)
	}
	if result.PersistenceWarning == nil {
		t.Fatalf("expected a persistence warning")
	}
	if result.Record != nil {
		t.Fatalf("failed save must not attach a record")
	}
	if result.TranslatedText != "你好世界" {
		t.Fatalf("unexpected translation: %q", result.TranslatedText)
	}
}

func TestTranslateSkipHistory(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{name: "remote", response: helloResponse()}
	saver := &stubSaver{}
	pipeline := newTestPipeline(transport, saver)

	result, err := pipeline.Translate(context.Background(), Input{
		Text:        "hello world",
		TargetLang:  "zh",
		SkipHistory: true,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(saver.inserted) != 0 {
		t.Fatalf("skip-history call must not save a record")
	}
	if result.Record != nil {
		t.Fatalf("skip-history result must not carry a record")
	}
}

func TestTranslateTransportErrorPassthrough(t *testing.T) {
	t.Parallel()

	transportErr := &TransportError{Op: "remote", Err: context.DeadlineExceeded}
	transport := &stubTransport{name: "remote", err: transportErr}
	pipeline := newTestPipeline(transport, nil)

	_, err := pipeline.Translate(context.Background(), Input{
		Text:       "hello",
		TargetLang: "zh",
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
	if !IsTransportError(err) {
		t.Fatalf("expected a TransportError, got %T", err)
	}
}

func TestTranslateWrapsBareTransportFailure(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{name: "remote", err: fmt.Errorf("connection refused")}
	pipeline := newTestPipeline(transport, nil)

	_, err := pipeline.Translate(context.Background(), Input{
		Text:       "hello",
		TargetLang: "zh",
	})
	if !IsTransportError(err) {
		t.Fatalf("expected a TransportError, got %v", err)
	}
}

func TestTranslateProviderErrorSurface(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{name: "remote", response: &RawResponse{ErrorCode: "54001"}}
	pipeline := newTestPipeline(transport, nil)

	_, err := pipeline.Translate(context.Background(), Input{
		Text:       "hello",
		TargetLang: "zh",
	})
	if !IsProviderError(err) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}
