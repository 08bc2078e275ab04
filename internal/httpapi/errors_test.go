package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"horse.fit/phrasebook/internal/history"
	"horse.fit/phrasebook/internal/translation"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) jsendResponse {
	t.Helper()
	var envelope jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestTranslationErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &translation.ValidationError{Field: "query", Reason: "must not be blank"}, http.StatusBadRequest},
		{"provider", &translation.ProviderError{Code: "54001", Message: "invalid signature"}, http.StatusBadGateway},
		{"transport", &translation.TransportError{Op: "remote", Err: http.ErrHandlerTimeout}, http.StatusGatewayTimeout},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, rec := newTestContext(t)
			if err := translationError(c, tc.err); err != nil {
				t.Fatalf("translationError returned %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			envelope := decodeEnvelope(t, rec)
			if envelope.Status != "fail" {
				t.Fatalf("expected fail envelope, got %q", envelope.Status)
			}
		})
	}
}

func TestTranslationErrorUnknownIsInternal(t *testing.T) {
	t.Parallel()

	c, rec := newTestContext(t)
	if err := translationError(c, http.ErrAbortHandler); err != nil {
		t.Fatalf("translationError returned %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.Status != "error" {
		t.Fatalf("expected error envelope, got %q", envelope.Status)
	}
}

func TestHistoryErrorMapping(t *testing.T) {
	t.Parallel()

	c, rec := newTestContext(t)
	err := historyError(c, &history.NotFoundError{IDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("historyError returned %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			IDs []string `json:"ids"`
		} `json:"data"`
	}
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &envelope); decodeErr != nil {
		t.Fatalf("decode response: %v", decodeErr)
	}
	if len(envelope.Data.IDs) != 2 {
		t.Fatalf("expected every missing id in the response, got %v", envelope.Data.IDs)
	}

	c, rec = newTestContext(t)
	if err := historyError(c, &history.InvalidRecordError{Field: "sort", Reason: "unknown"}); err != nil {
		t.Fatalf("historyError returned %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestParseSearchFields(t *testing.T) {
	t.Parallel()

	fields, err := parseSearchFields(" original_text , tags ")
	if err != nil {
		t.Fatalf("parseSearchFields failed: %v", err)
	}
	if len(fields) != 2 || fields[0] != history.FieldOriginalText || fields[1] != history.FieldTags {
		t.Fatalf("unexpected fields: %v", fields)
	}

	if fields, err := parseSearchFields(""); err != nil || fields != nil {
		t.Fatalf("blank input must yield the default field set, got %v, %v", fields, err)
	}

	if _, err := parseSearchFields("bogus"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
