package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/phrasebook/internal/history"
)

// maxImportBodyBytes caps history import payloads at 32 MiB.
const maxImportBodyBytes = 32 << 20

func (s *Server) historyStore(c echo.Context) (*history.Store, error) {
	store, err := s.container.History(c.Request().Context())
	if err != nil {
		return nil, internalError(c, fmt.Sprintf("history store unavailable: %v", err))
	}
	return store, nil
}

func (s *Server) handleHistoryList(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	query := c.QueryParam("q")
	fields, err := parseSearchFields(c.QueryParam("fields"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	if rawSort := c.QueryParam("sort"); rawSort != "" {
		option, parseErr := history.ParseSortOption(rawSort)
		if parseErr != nil {
			return fail(c, http.StatusBadRequest, parseErr.Error(), nil)
		}
		records, sortErr := store.SortedBy(c.Request().Context(), option)
		if sortErr != nil {
			return historyError(c, sortErr)
		}
		if query != "" {
			records = filterRecords(records, query, fields)
		}
		return success(c, map[string]any{"records": records, "count": len(records)})
	}

	records, err := store.Search(c.Request().Context(), query, fields...)
	if err != nil {
		return historyError(c, err)
	}
	return success(c, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleHistoryGroups(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	groups, err := store.GroupedByTime(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return historyError(c, err)
	}
	return success(c, map[string]any{"groups": groups})
}

func (s *Server) handleHistoryGet(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	record, err := store.Get(c.Request().Context(), c.Param("record_id"))
	if err != nil {
		return historyError(c, err)
	}
	return success(c, record)
}

func (s *Server) handleHistoryDelete(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	if err := store.Delete(c.Request().Context(), c.Param("record_id")); err != nil {
		return historyError(c, err)
	}
	return success(c, map[string]any{"deleted": 1})
}

type deleteBatchRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleHistoryDeleteBatch(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	var req deleteBatchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}
	if len(req.IDs) == 0 {
		return fail(c, http.StatusBadRequest, "ids must not be empty", nil)
	}

	if err := store.DeleteBatch(c.Request().Context(), req.IDs); err != nil {
		return historyError(c, err)
	}
	return success(c, map[string]any{"deleted": len(req.IDs)})
}

func (s *Server) handleHistoryClear(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	keepFavorites := false
	if raw := c.QueryParam("keep_favorites"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "keep_favorites must be a boolean", nil)
		}
		keepFavorites = parsed
	}

	cleared, err := store.ClearAll(c.Request().Context(), keepFavorites)
	if err != nil {
		return historyError(c, err)
	}
	return success(c, map[string]any{"cleared": cleared})
}

func (s *Server) handleHistoryToggleFavorite(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	record, err := store.ToggleFavorite(c.Request().Context(), c.Param("record_id"))
	if err != nil {
		return historyError(c, err)
	}
	return success(c, record)
}

func (s *Server) handleHistoryIncrementUsage(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	record, err := store.IncrementUsage(c.Request().Context(), c.Param("record_id"))
	if err != nil {
		return historyError(c, err)
	}
	return success(c, record)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleHistorySetNote(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}

	record, err := store.SetNote(c.Request().Context(), c.Param("record_id"), req.Note)
	if err != nil {
		return historyError(c, err)
	}
	return success(c, record)
}

type tagRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) handleHistoryAddTag(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}
	if strings.TrimSpace(req.Tag) == "" {
		return fail(c, http.StatusBadRequest, "tag must not be blank", nil)
	}

	record, err := store.AddTag(c.Request().Context(), c.Param("record_id"), req.Tag)
	if err != nil {
		return historyError(c, err)
	}
	return success(c, record)
}

func (s *Server) handleHistoryRemoveTag(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	record, err := store.RemoveTag(c.Request().Context(), c.Param("record_id"), c.Param("tag"))
	if err != nil {
		return historyError(c, err)
	}
	return success(c, record)
}

func (s *Server) handleHistoryExport(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	payload, err := store.Export(c.Request().Context())
	if err != nil {
		return historyError(c, err)
	}
	return success(c, payload)
}

func (s *Server) handleHistoryImport(c echo.Context) error {
	store, echoErr := s.historyStore(c)
	if store == nil {
		return echoErr
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBodyBytes))
	if err != nil {
		return fail(c, http.StatusBadRequest, "failed to read request body", nil)
	}

	imported, err := store.Import(c.Request().Context(), json.RawMessage(body))
	if err != nil {
		return historyError(c, err)
	}
	return success(c, map[string]any{"imported": imported})
}

// historyError maps a store failure onto an HTTP status. Missing records
// come back as 404 with every missing id listed.
func historyError(c echo.Context, err error) error {
	var notFoundErr *history.NotFoundError
	if errors.As(err, &notFoundErr) {
		return failNotFound(c, notFoundErr.Error(), map[string]any{"ids": notFoundErr.IDs})
	}
	if history.IsNotFound(err) {
		return failNotFound(c, err.Error(), nil)
	}
	if history.IsInvalidRecord(err) {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}
	return internalError(c, err.Error())
}

func parseSearchFields(raw string) ([]history.Field, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	known := map[history.Field]bool{}
	for _, field := range history.DefaultSearchFields {
		known[field] = true
	}

	var fields []history.Field
	for _, part := range strings.Split(raw, ",") {
		field := history.Field(strings.TrimSpace(part))
		if field == "" {
			continue
		}
		if !known[field] {
			return nil, fmt.Errorf("unknown search field %q", field)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func filterRecords(records []history.Record, query string, fields []history.Field) []history.Record {
	filtered := make([]history.Record, 0, len(records))
	for _, record := range records {
		if history.MatchRecord(record, query, fields) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
