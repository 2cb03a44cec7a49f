// README: Ride offer, seat request and DD dropoff handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rally/internal/http/middleware"
	"rally/internal/modules/ride"
	"rally/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

func rideView(r *ride.Ride) gin.H {
	return gin.H{
		"id":              r.ID,
		"event_id":        r.EventID,
		"driver_id":       r.DriverID,
		"pickup_location": r.PickupLocation,
		"destination":     r.Destination,
		"available_seats": r.AvailableSeats,
		"departure_time":  r.DepartureTime,
		"status":          r.Status,
		"created_at":      r.CreatedAt,
	}
}

type offerReq struct {
	PickupLocation string     `json:"pickup_location"`
	Destination    string     `json:"destination"`
	AvailableSeats int        `json:"available_seats"`
	DepartureTime  *time.Time `json:"departure_time"`
}

func (h *RideHandler) Offer(c *gin.Context) {
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rides.OfferRide(c.Request.Context(), ride.OfferCommand{
		EventID:        types.ID(c.Param("id")),
		DriverID:       types.ID(middleware.CallerUID(c)),
		PickupLocation: req.PickupLocation,
		Destination:    req.Destination,
		AvailableSeats: req.AvailableSeats,
		DepartureTime:  req.DepartureTime,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, rideView(r))
}

func (h *RideHandler) ListByEvent(c *gin.Context) {
	rides, err := h.rides.ListByEvent(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	views := make([]gin.H, 0, len(rides))
	for i := range rides {
		views = append(views, rideView(&rides[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": views})
}

type requestSeatReq struct {
	PickupLocation string `json:"pickup_location"`
}

func (h *RideHandler) RequestSeat(c *gin.Context) {
	var req requestSeatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.rides.RequestSeat(c.Request.Context(), ride.RequestCommand{
		RideID:         types.ID(c.Param("ride_id")),
		PassengerID:    types.ID(middleware.CallerUID(c)),
		PickupLocation: req.PickupLocation,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"ride_id":      p.RideID,
		"passenger_id": p.PassengerID,
		"status":       p.Status,
	})
}

type respondReq struct {
	Accept bool `json:"accept"`
}

// Respond is the driver's accept/decline on a seat request. Only the ride's
// own driver may respond.
func (h *RideHandler) Respond(c *gin.Context) {
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rideID := types.ID(c.Param("ride_id"))

	r, err := h.rides.GetRide(c.Request.Context(), rideID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	if string(r.DriverID) != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "forbidden: not the ride driver")
		return
	}

	err = h.rides.RespondToRequest(c.Request.Context(), ride.RespondCommand{
		RideID:      rideID,
		PassengerID: types.ID(c.Param("passenger_id")),
		Accept:      req.Accept,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	status := ride.PassengerDeclined
	if req.Accept {
		status = ride.PassengerAccepted
	}
	writeJSON(c, http.StatusOK, gin.H{"status": status})
}

func (h *RideHandler) CarGroup(c *gin.Context) {
	members, err := h.rides.CarGroup(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"members": members})
}

func (h *RideHandler) ConfirmablePassengers(c *gin.Context) {
	list, err := h.rides.ConfirmablePassengers(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, attendeeView(&list[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"passengers": views})
}

func (h *RideHandler) ConfirmDropoff(c *gin.Context) {
	a, err := h.rides.ConfirmDropoff(
		c.Request.Context(),
		types.ID(c.Param("id")),
		types.ID(middleware.CallerUID(c)),
		types.ID(c.Param("passenger_id")),
	)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attendeeView(a))
}
