// README: Base handler utilities (JSON helpers, per-module error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/modules/location"
	"rally/internal/modules/notify"
	"rally/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeAttendeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendee.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, attendee.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, attendee.ErrAlreadyArrived),
		errors.Is(err, attendee.ErrNotParticipating),
		errors.Is(err, attendee.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeEventError(c *gin.Context, err error) {
	var incomplete *event.SafetyIncompleteError
	if errors.As(err, &incomplete) {
		counts := make(map[string]int, len(incomplete.Counts))
		for state, n := range incomplete.Counts {
			counts[string(state)] = n
		}
		writeJSON(c, http.StatusConflict, gin.H{
			"error":   "safety incomplete",
			"pending": incomplete.Pending(),
			"counts":  counts,
		})
		return
	}
	switch {
	case errors.Is(err, event.ErrBadRequest), errors.Is(err, event.ErrLocationRequired):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, event.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, event.ErrInvalidState), errors.Is(err, event.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrRideNotFound), errors.Is(err, ride.ErrRequestNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrAlreadyRequested),
		errors.Is(err, ride.ErrAlreadyInCar),
		errors.Is(err, ride.ErrRideFull),
		errors.Is(err, ride.ErrRideClosed),
		errors.Is(err, ride.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, attendee.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, attendee.ErrNotParticipating), errors.Is(err, attendee.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, location.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, location.ErrNoPosition):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeNotifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notify.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
