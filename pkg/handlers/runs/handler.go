package runs

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/models/api"
	"github.com/syncdeck/core/pkg/store"
)

// RunCanceller requests cancellation of a running run.
type RunCanceller interface {
	CancelRun(ctx context.Context, runID int64) error
}

type Handler struct {
	store     store.Store
	canceller RunCanceller
	logger    *logger.Logger
}

func NewHandler(st store.Store, canceller RunCanceller, logger *logger.Logger) *Handler {
	return &Handler{
		store:     st,
		canceller: canceller,
		logger:    logger,
	}
}

// Active handles GET /api/runs/active
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := h.store.ActiveRuns(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch active runs")
		http.Error(w, "Failed to fetch active runs", http.StatusInternalServerError)
		return
	}

	response := make([]api.ActiveRunResponse, 0, len(active))
	for _, run := range active {
		response = append(response, api.ActiveRunResponse{
			RunID:      run.ID,
			JobID:      run.JobID,
			Kind:       string(run.Kind),
			StartedAt:  run.StartedAt,
			BytesDone:  run.Counters.BytesDone,
			BytesTotal: run.Counters.BytesTotal,
			Files:      run.Counters.Files,
			Errors:     run.Counters.Errors,
			Summary:    run.Summary,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode active runs response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Cancel handles POST /api/runs/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract run ID from path
	runIDStr := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runIDStr = strings.TrimSuffix(runIDStr, "/cancel")

	runID, err := strconv.ParseInt(runIDStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	if err := h.canceller.CancelRun(r.Context(), runID); err != nil {
		h.logger.Error().
			Err(err).
			Int64("run_id", runID).
			Str("action", "cancel_failed").
			Msg("Failed to cancel run")
		http.Error(w, "Failed to cancel run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(api.CancelResponse{
		RunID:     runID,
		Requested: true,
		Message:   "Stop requested",
	}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode cancel response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
