package anomaly

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/umbra-games/umbra-security/internal/platform/httpx"
)

// Handler exposes the anomaly scoring endpoint.
type Handler struct {
	logger    *slog.Logger
	detector  *Detector
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, detector *Detector) *Handler {
	return &Handler{
		logger:    logger,
		detector:  detector,
		validator: validator.New(),
	}
}

// MountRoutes registers anomaly routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/detect", h.handleDetect)
}

type detectRequest struct {
	PlayerID string             `json:"player_id" validate:"required"`
	Metrics  map[string]float64 `json:"metrics" validate:"required,min=1"`
}

func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		httpx.Fail(w, http.StatusBadRequest, "Player identifier is required.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "No metrics provided for analysis.")
		return
	}

	result := h.detector.Evaluate(req.Metrics)

	httpx.OK(w, http.StatusOK, "Analysis completed.", map[string]any{
		"player_id":     req.PlayerID,
		"evaluated_at":  time.Now().UTC().Format(time.RFC3339Nano),
		"is_suspicious": result.IsSuspicious,
		"risk_score":    result.RiskScore,
		"reasons":       result.Reasons,
	})
}
