package translation

import (
	"strings"
	"time"

	"horse.fit/phrasebook/internal/history"
	"horse.fit/phrasebook/internal/language"
)

// TransSegment is one translated chunk of a provider response. Batch-style
// responses carry several segments.
type TransSegment struct {
	Src        string   `json:"src"`
	Dst        string   `json:"dst"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// RawResponse is the provider wire response.
type RawResponse struct {
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_msg,omitempty"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	TransResult []TransSegment `json:"trans_result,omitempty"`
	Confidence  *float64       `json:"confidence,omitempty"`
}

// Result is the domain output of one translation call.
type Result struct {
	OriginalText       string
	TranslatedText     string
	SourceLanguage     language.Info
	TargetLanguage     language.Info
	Timestamp          time.Time
	Confidence         *float64
	Provider           string
	Duration           time.Duration
	Record             *history.Record
	PersistenceWarning error
}

// MapResponse validates a provider response and converts it into a Result.
// It is stateless and performs no I/O; retry policy belongs to the transport.
func MapResponse(resp *RawResponse, originalText string, requestedAt time.Time) (*Result, error) {
	if resp == nil {
		return nil, &ProviderError{
			Code:    CodeEmptyResult,
			Message: "provider returned no response payload",
		}
	}

	code := strings.TrimSpace(resp.ErrorCode)
	if !isSuccessCode(code) {
		return nil, &ProviderError{Code: code, Message: providerErrorMessage(code)}
	}

	translated := joinSegments(resp.TransResult)
	if translated == "" {
		return nil, &ProviderError{
			Code:    CodeEmptyResult,
			Message: "provider response carries no translation payload",
		}
	}

	from := language.NormalizeCode(resp.From)
	to := language.NormalizeCode(resp.To)
	if from == "" || to == "" {
		return nil, &ProviderError{
			Code:    CodeMissingLanguageMetadata,
			Message: "provider response is missing detected language codes",
		}
	}

	return &Result{
		OriginalText:   originalText,
		TranslatedText: translated,
		SourceLanguage: language.Resolve(from),
		TargetLanguage: language.Resolve(to),
		Timestamp:      requestedAt,
		Confidence:     aggregateConfidence(resp),
	}, nil
}

// joinSegments concatenates batch-style segments with newline separators.
func joinSegments(segments []TransSegment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		dst := strings.TrimSpace(segment.Dst)
		if dst == "" {
			continue
		}
		parts = append(parts, dst)
	}
	return strings.Join(parts, "\n")
}

// aggregateConfidence averages per-segment confidences with the top-level
// confidence when present. Returns nil when no confidence was reported.
func aggregateConfidence(resp *RawResponse) *float64 {
	sum := 0.0
	count := 0
	for _, segment := range resp.TransResult {
		if segment.Confidence == nil {
			continue
		}
		sum += *segment.Confidence
		count++
	}
	if resp.Confidence != nil {
		sum += *resp.Confidence
		count++
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}
