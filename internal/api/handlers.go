package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mindmate-insights/internal/analysis"
	apierrors "mindmate-insights/internal/errors"
	"mindmate-insights/internal/logging"
	"mindmate-insights/internal/storage"
	"mindmate-insights/pkg/types"
)

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError stamps the request's trace ID onto the error and writes it
func (r *Router) respondError(w http.ResponseWriter, req *http.Request, stdErr *apierrors.StandardError) {
	if traceID, ok := req.Context().Value(logging.TraceIDKey).(string); ok {
		stdErr = stdErr.WithTraceID(traceID)
	}
	stdErr.WriteHTTP(w)
}

// writeError translates internal errors into the standard wire format
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var stdErr *apierrors.StandardError
	if errors.As(err, &stdErr) {
		r.respondError(w, req, stdErr)
		return
	}

	var insufficientErr *analysis.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		r.respondError(w, req, apierrors.NewInsufficientDataError(insufficientErr.ValidCount, analysis.MinAnalyzableEntries))
		return
	}

	var cfgErr *analysis.ConfigurationError
	if errors.As(err, &cfgErr) {
		r.respondError(w, req, apierrors.NewConfigurationError(cfgErr.Field, cfgErr.Reason))
		return
	}

	if errors.Is(err, storage.ErrNotFound) {
		r.respondError(w, req, apierrors.NewNotFoundError("entry", ""))
		return
	}

	r.logger.ErrorContext(req.Context(), "request failed", "error", err.Error())
	r.respondError(w, req, apierrors.NewInternalError())
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	status := map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if r.hub != nil {
		status["live_clients"] = r.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, status)
}

// createEntryRequest is the wire format for recording an emotion.
// Timestamp accepts RFC 3339 strings or epoch milliseconds and defaults
// to the current time. Emotion labels go through alias mapping, so
// "happy" and "anxious" are accepted.
type createEntryRequest struct {
	SubjectID string      `json:"subject_id"`
	Emotion   string      `json:"emotion"`
	Timestamp interface{} `json:"timestamp,omitempty"`
	Note      string      `json:"note,omitempty"`
}

func (r *Router) handleCreateEntry(w http.ResponseWriter, req *http.Request) {
	var body createEntryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.respondError(w, req, apierrors.NewValidationError("body", "invalid JSON", nil))
		return
	}

	if body.SubjectID == "" {
		r.respondError(w, req, apierrors.NewRequiredFieldError("subject_id"))
		return
	}
	if body.Emotion == "" {
		r.respondError(w, req, apierrors.NewRequiredFieldError("emotion"))
		return
	}

	timestamp := time.Now().UTC()
	if body.Timestamp != nil {
		parsed, ok := parseTimestampField(body.Timestamp)
		if !ok {
			r.respondError(w, req, apierrors.NewValidationError("timestamp", "must be RFC 3339 or epoch milliseconds", body.Timestamp))
			return
		}
		timestamp = parsed
	}

	entry, err := types.NewEmotionEntry(body.SubjectID, types.MapLabel(body.Emotion), timestamp, body.Note)
	if err != nil {
		r.respondError(w, req, apierrors.NewValidationError("entry", err.Error(), nil))
		return
	}

	if err := r.store.Store(req.Context(), entry); err != nil {
		r.writeError(w, req, err)
		return
	}

	if r.debouncer != nil {
		r.debouncer.Notify(entry.SubjectID)
	}

	writeJSON(w, http.StatusCreated, entry)
}

func parseTimestampField(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	}
	return time.Time{}, false
}

func (r *Router) handleListEntries(w http.ResponseWriter, req *http.Request) {
	query := &storage.EntryQuery{
		SubjectID: req.URL.Query().Get("subject_id"),
	}
	if query.SubjectID == "" {
		r.respondError(w, req, apierrors.NewRequiredFieldError("subject_id"))
		return
	}

	if raw := req.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			r.respondError(w, req, apierrors.NewValidationError("limit", "must be a non-negative integer", raw))
			return
		}
		query.Limit = limit
	}
	if raw := req.URL.Query().Get("after"); raw != "" {
		after, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			r.respondError(w, req, apierrors.NewValidationError("after", "must be RFC 3339", raw))
			return
		}
		query.After = &after
	}
	if raw := req.URL.Query().Get("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			r.respondError(w, req, apierrors.NewValidationError("before", "must be RFC 3339", raw))
			return
		}
		query.Before = &before
	}

	entries, err := r.store.List(req.Context(), query)
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (r *Router) handleGetEntry(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	entry, err := r.store.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.respondError(w, req, apierrors.NewNotFoundError("entry", id))
			return
		}
		r.writeError(w, req, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (r *Router) handleDeleteEntry(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	if err := r.store.Delete(req.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.respondError(w, req, apierrors.NewNotFoundError("entry", id))
			return
		}
		r.writeError(w, req, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handlePatterns(w http.ResponseWriter, req *http.Request) {
	subjectID := chi.URLParam(req, "subjectID")

	result, err := r.service.Patterns(req.Context(), subjectID)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleTransitions(w http.ResponseWriter, req *http.Request) {
	subjectID := chi.URLParam(req, "subjectID")

	var focus *types.Emotion
	if raw := req.URL.Query().Get("focus"); raw != "" {
		// focus names one of the canonical seven; classifier aliases are
		// resolved only at entry ingestion
		emotion := types.Emotion(raw)
		if !emotion.Valid() {
			r.respondError(w, req, apierrors.NewValidationError("focus", "must be a canonical emotion", raw))
			return
		}
		focus = &emotion
	}

	result, err := r.service.Transitions(req.Context(), subjectID, focus)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleDaily(w http.ResponseWriter, req *http.Request) {
	subjectID := chi.URLParam(req, "subjectID")

	result, err := r.service.Daily(req.Context(), subjectID)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleTimeOfDay(w http.ResponseWriter, req *http.Request) {
	subjectID := chi.URLParam(req, "subjectID")

	result, err := r.service.TimeOfDay(req.Context(), subjectID)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) {
	subjectID := chi.URLParam(req, "subjectID")

	builder, err := r.service.Report(req.Context(), subjectID)
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	switch req.URL.Query().Get("format") {
	case "", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(builder.Markdown()))
	case "html":
		html, err := builder.HTML()
		if err != nil {
			r.writeError(w, req, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	default:
		r.respondError(w, req, apierrors.NewValidationError("format", "must be markdown or html", req.URL.Query().Get("format")))
	}
}
