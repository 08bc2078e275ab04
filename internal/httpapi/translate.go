package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/phrasebook/internal/history"
	"horse.fit/phrasebook/internal/language"
	"horse.fit/phrasebook/internal/translation"
)

type translateRequest struct {
	Text        string   `json:"text"`
	SourceLang  string   `json:"source_lang"`
	TargetLang  string   `json:"target_lang"`
	Provider    string   `json:"provider,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	SkipHistory bool     `json:"skip_history,omitempty"`
}

type translateResponse struct {
	OriginalText       string          `json:"original_text"`
	TranslatedText     string          `json:"translated_text"`
	SourceLanguage     language.Info   `json:"source_language"`
	TargetLanguage     language.Info   `json:"target_language"`
	Timestamp          time.Time       `json:"timestamp"`
	Confidence         *float64        `json:"confidence,omitempty"`
	Provider           string          `json:"provider"`
	DurationMS         int64           `json:"duration_ms"`
	Record             *history.Record `json:"record,omitempty"`
	PersistenceWarning string          `json:"persistence_warning,omitempty"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}

	pipeline, err := s.container.Pipeline(c.Request().Context())
	if err != nil {
		return internalError(c, fmt.Sprintf("pipeline unavailable: %v", err))
	}

	result, err := pipeline.Translate(c.Request().Context(), translation.Input{
		Text:        req.Text,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		Provider:    req.Provider,
		Tags:        req.Tags,
		Notes:       req.Notes,
		SkipHistory: req.SkipHistory,
	})
	if err != nil {
		return translationError(c, err)
	}

	resp := translateResponse{
		OriginalText:   result.OriginalText,
		TranslatedText: result.TranslatedText,
		SourceLanguage: result.SourceLanguage,
		TargetLanguage: result.TargetLanguage,
		Timestamp:      result.Timestamp,
		Confidence:     result.Confidence,
		Provider:       result.Provider,
		DurationMS:     result.Duration.Milliseconds(),
		Record:         result.Record,
	}
	if result.PersistenceWarning != nil {
		resp.PersistenceWarning = result.PersistenceWarning.Error()
	}
	return success(c, resp)
}

func (s *Server) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{"languages": language.Options()})
}

// translationError maps a pipeline failure onto an HTTP status. Validation
// failures are the caller's fault, provider failures are upstream faults,
// and transport failures read as a gateway timeout.
func translationError(c echo.Context, err error) error {
	var validationErr *translation.ValidationError
	if errors.As(err, &validationErr) {
		return fail(c, http.StatusBadRequest, validationErr.Error(), map[string]string{
			"field": validationErr.Field,
		})
	}

	var providerErr *translation.ProviderError
	if errors.As(err, &providerErr) {
		return fail(c, http.StatusBadGateway, providerErr.Message, map[string]string{
			"code": providerErr.Code,
		})
	}

	if translation.IsTransportError(err) {
		return fail(c, http.StatusGatewayTimeout, err.Error(), nil)
	}

	return internalError(c, err.Error())
}
