package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/api/respond"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/cache"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

// windowResponse only depends on the local date, so it is safe to cache.
type windowResponse struct {
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

type passResponse struct {
	RunID           string `json:"run_id"`
	StartedAt       string `json:"started_at"`
	WindowStart     string `json:"window_start"`
	WindowEnd       string `json:"window_end"`
	ItemsFound      int    `json:"items_found"`
	ItemsSkipped    int    `json:"items_skipped"`
	Multicasts      int    `json:"multicasts"`
	TokensAttempted int    `json:"tokens_attempted"`
	TokensSucceeded int    `json:"tokens_succeeded"`
	TokensFailed    int    `json:"tokens_failed"`
	DurationMS      int64  `json:"duration_ms"`
	Error           string `json:"error,omitempty"`
}

func toPassResponse(res expiry.PassResult) passResponse {
	out := passResponse{
		RunID:           res.RunID,
		StartedAt:       res.StartedAt.Format(time.RFC3339),
		WindowStart:     res.Window.Start.Format(time.RFC3339),
		WindowEnd:       res.Window.End.Format(time.RFC3339),
		ItemsFound:      res.ItemsFound,
		ItemsSkipped:    res.ItemsSkipped,
		Multicasts:      res.Multicasts,
		TokensAttempted: res.TokensAttempted,
		TokensSucceeded: res.TokensSucceeded,
		TokensFailed:    res.TokensFailed,
		DurationMS:      res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// GetExpiryWindow returns the window a pass started at `at` would query.
// @Summary Get expiry window
// @Description Returns the inclusive [today 00:00:00, tomorrow 23:59:59] window for the given instant (default now) in the configured timezone.
// @Tags expiry
// @Produce json
// @Param at query string false "RFC3339 instant"
// @Success 200 {object} windowResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/expiry/window [get]
func (h *Handler) GetExpiryWindow(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_AT", "at must be an RFC3339 timestamp", err.Error())
			return
		}
		at = t
	}

	win := h.job.Window(at)
	// The window only depends on the local calendar date of `at`.
	cacheKey := "window:" + win.Start.Format(time.DateOnly) + ":" + win.Start.Location().String()
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, true)
		return
	}

	data, err := json.Marshal(windowResponse{
		Date:     win.Start.Format(time.DateOnly),
		Start:    win.Start.Format(time.RFC3339),
		End:      win.End.Format(time.RFC3339),
		Timezone: win.Start.Location().String(),
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to encode window")
		return
	}
	etag := h.cache.Set(cacheKey, data, cache.TTLWindow)
	respond.WriteJSON(w, data, etag, false)
}

// GetExpiryStatus returns the result of the most recent pass.
// @Summary Last expiry pass
// @Description Returns the counters of the most recent notification pass.
// @Tags expiry
// @Produce json
// @Success 200 {object} passResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/expiry/status [get]
func (h *Handler) GetExpiryStatus(w http.ResponseWriter, r *http.Request) {
	res, ok := h.job.Last()
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NO_PASS_YET", "No expiry pass has run yet")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, toPassResponse(res))
}

// RunExpiryPass runs one notification pass synchronously.
// @Summary Run expiry pass
// @Description Runs one notification pass now and returns its counters. Requires a service_role token.
// @Tags expiry
// @Produce json
// @Security BearerAuth
// @Success 200 {object} passResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 502 {object} passResponse
// @Router /api/v1/expiry/run [post]
func (h *Handler) RunExpiryPass(w http.ResponseWriter, r *http.Request) {
	// A client disconnect must not abort a pass halfway through its sends.
	res := h.job.Run(context.WithoutCancel(r.Context()))
	status := http.StatusOK
	if res.Err != nil {
		status = http.StatusBadGateway
	}
	respond.WriteJSONObject(w, status, toPassResponse(res))
}
