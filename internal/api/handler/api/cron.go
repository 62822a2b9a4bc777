// internal/api/handler/api/cron.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cryptoalert/internal/pipeline"
)

// CronRunner defines the interface needed from pipeline.Pipeline.
type CronRunner interface {
	CollectPrices(ctx context.Context) (pipeline.CollectResult, error)
	EvaluateAlerts(ctx context.Context) (pipeline.EvaluateResult, error)
}

// CronHandler serves the externally-invocable task endpoints. Their response
// shape is flat {"success": ...} JSON rather than the enveloped format, so
// existing cron invokers keep working unchanged.
type CronHandler struct {
	runner CronRunner
}

// NewCronHandler creates a new cron handler.
func NewCronHandler(runner CronRunner) *CronHandler {
	return &CronHandler{runner: runner}
}

// CollectData triggers one price collection run.
func (h *CronHandler) CollectData(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.CollectPrices(r.Context())
	if err != nil {
		writeCron(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	writeCron(w, http.StatusOK, map[string]any{
		"success":   true,
		"collected": res.Collected,
		"timestamp": res.Timestamp.Format(time.RFC3339),
	})
}

// AnalyzeData triggers one alert evaluation run.
func (h *CronHandler) AnalyzeData(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.EvaluateAlerts(r.Context())
	if err != nil {
		writeCron(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	writeCron(w, http.StatusOK, map[string]any{
		"success":          true,
		"alerts_checked":   res.Checked,
		"alerts_triggered": res.Triggered,
	})
}

func writeCron(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
