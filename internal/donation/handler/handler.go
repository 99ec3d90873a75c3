// Package handler exposes the donation HTTP surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	donationModel "lifelink/internal/donation/models"
	"lifelink/internal/donation/service"
	"lifelink/internal/platform/metrics"
	"lifelink/internal/platform/middleware"
	dErrors "lifelink/pkg/domain-errors"
)

// rollbackAssurance is returned on every transactional failure so clients
// know resubmitting cannot double-apply anything.
const rollbackAssurance = "Transaction rolled back: no donation was recorded and no inventory was changed"

// Service defines the interface for donation operations.
type Service interface {
	Record(ctx context.Context, req donationModel.RecordDonationRequest) (*service.RecordResult, error)
	ListRecent(ctx context.Context) ([]donationModel.DonationSummary, error)
}

// Handler handles donation-related endpoints.
type Handler struct {
	logger   *slog.Logger
	donation Service
	metrics  *metrics.Metrics
}

// New creates a donation Handler.
func New(donation Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		donation: donation,
		metrics:  m,
	}
}

// Register registers the donation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	donationRouter := chi.NewRouter()
	donationRouter.Use(middleware.Recovery(h.logger))
	donationRouter.Use(middleware.RequestID)
	donationRouter.Use(middleware.Logger(h.logger))
	donationRouter.Use(middleware.Timeout(30 * time.Second))
	donationRouter.Use(middleware.ContentTypeJSON)
	donationRouter.Use(middleware.Latency(h.metrics))
	donationRouter.Post("/blood-donation", h.handleRecordDonation)
	donationRouter.Get("/blood-donation", h.handleListDonations)

	r.Mount("/", donationRouter)
}

type recordDonationResponse struct {
	Donation  any    `json:"donation"`
	Inventory any    `json:"inventory"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Rollback string `json:"rollback,omitempty"`
}

// handleRecordDonation runs the transactional recording flow.
func (h *Handler) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req donationModel.RecordDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid donation request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request",
			Details: "request body must be valid JSON",
		})
		return
	}

	result, err := h.donation.Record(ctx, req)
	if err != nil {
		h.writeRecordError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordDonationResponse{
		Donation:  result.Donation,
		Inventory: result.Inventory,
		Message:   "Donation recorded successfully",
	})
}

func (h *Handler) writeRecordError(ctx context.Context, w http.ResponseWriter, err error) {
	requestID := middleware.GetRequestID(ctx)

	switch {
	case dErrors.HasCode(err, dErrors.CodeBadRequest) || dErrors.HasCode(err, dErrors.CodeInvalidInput):
		// Rejected before any store access; nothing to roll back.
		h.logger.WarnContext(ctx, "donation request rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request",
			Details: dErrors.Message(err),
		})
	case dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeTypeMismatch):
		h.logger.WarnContext(ctx, "donation validation failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:    "Validation failed",
			Details:  dErrors.Message(err),
			Rollback: rollbackAssurance,
		})
	default:
		// Store faults stay generic; no storage detail leaks to the caller.
		h.logger.ErrorContext(ctx, "failed to process donation",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:    "Failed to process donation",
			Details:  dErrors.Message(err),
			Rollback: rollbackAssurance,
		})
	}
}

// handleListDonations serves the read-only recent donations listing.
func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donations, err := h.donation.ListRecent(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list donations",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to list donations",
			Details: dErrors.Message(err),
		})
		return
	}
	if donations == nil {
		donations = []donationModel.DonationSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"donations": donations,
		"count":     len(donations),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
