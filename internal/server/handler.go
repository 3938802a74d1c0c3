package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/models"
	"github.com/benmeehan/device-locator/internal/services"
)

const (
	msgLocationUnavailable = "No location data available (device might be offline)."
	msgMalformedLocation   = "Location payload missing latitude/longitude."
	msgAddressUnavailable  = "Could not reverse geocode the location."
	msgInternal            = "Internal server error."
)

// Handler serves the location endpoint.
type Handler struct {
	locations services.LocationServiceInterface
	logger    zerolog.Logger
}

// NewHandler constructs a Handler bound to the location service.
func NewHandler(locations services.LocationServiceInterface, logger zerolog.Logger) *Handler {
	return &Handler{locations: locations, logger: logger}
}

func (h *Handler) getLocation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.locations.GetLocation(r.Context())
	if err != nil {
		status, detail := h.describe(err)
		h.logger.Warn().
			Err(err).
			Int("status", status).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("Location request failed")
		writeJSON(w, status, models.ErrorResponse{Detail: detail})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// describe maps a location error to its HTTP status and client-facing detail.
func (h *Handler) describe(err error) (int, string) {
	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, services.ErrDeviceNotFound):
		return http.StatusNotFound, fmt.Sprintf("Device '%s' not found in account.", h.locations.DeviceName())
	case errors.Is(err, services.ErrLocationUnavailable):
		return http.StatusNotFound, msgLocationUnavailable
	case errors.Is(err, services.ErrMalformedLocation):
		return http.StatusBadGateway, msgMalformedLocation
	case errors.Is(err, services.ErrAddressUnavailable):
		return http.StatusBadGateway, msgAddressUnavailable
	case errors.As(err, &upstream):
		return http.StatusBadGateway, fmt.Sprintf("Could not fetch location from account service: %v", upstream.Err)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
