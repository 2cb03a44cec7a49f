// README: Driver position and ETA handlers.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rally/internal/http/middleware"
	"rally/internal/modules/location"
	"rally/internal/types"
)

// Geocoder resolves a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type LocationHandler struct {
	location *location.Service
	geocoder Geocoder
}

func NewLocationHandler(svc *location.Service, geocoder Geocoder) *LocationHandler {
	return &LocationHandler{location: svc, geocoder: geocoder}
}

type positionReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdatePosition records the authenticated driver's own position.
func (h *LocationHandler) UpdatePosition(c *gin.Context) {
	var req positionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.UpdatePosition(c.Request.Context(), location.Update{
		EventID:  types.ID(c.Param("id")),
		DriverID: types.ID(middleware.CallerUID(c)),
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// DriverETA answers "how far out is this driver from my pickup point?".
// The pickup point comes from lat/lng query params, or from an address
// query param resolved through the geocoder.
func (h *LocationHandler) DriverETA(c *gin.Context) {
	pickup, ok := h.pickupPoint(c)
	if !ok {
		return
	}

	est, err := h.location.DriverETA(
		c.Request.Context(),
		types.ID(c.Param("id")),
		types.ID(c.Param("driver_id")),
		pickup,
	)
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"distance_km": est.DistanceKm,
		"eta_minutes": est.EtaMinutes,
		"reported_at": est.ReportedAt,
	})
}

func (h *LocationHandler) pickupPoint(c *gin.Context) (types.Point, bool) {
	if address := c.Query("address"); address != "" {
		if h.geocoder == nil {
			writeError(c, http.StatusServiceUnavailable, "geocoding not configured")
			return types.Point{}, false
		}
		p, err := h.geocoder.Geocode(c.Request.Context(), address)
		if err != nil {
			writeError(c, http.StatusBadRequest, "could not geocode address")
			return types.Point{}, false
		}
		return p, true
	}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid lat")
		return types.Point{}, false
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid lng")
		return types.Point{}, false
	}
	return types.Point{Lat: lat, Lng: lng}, true
}
