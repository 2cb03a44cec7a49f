// README: Event lifecycle handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rally/internal/modules/event"
	"rally/internal/types"
)

type EventHandler struct {
	events *event.Service
}

func NewEventHandler(svc *event.Service) *EventHandler {
	return &EventHandler{events: svc}
}

func eventView(ev *event.Event) gin.H {
	return gin.H{
		"id":                        ev.ID,
		"title":                     ev.Title,
		"is_bar_hop":                ev.IsBarHop,
		"status":                    ev.Status,
		"after_rally_location_name": ev.AfterRallyLocationName,
		"created_at":                ev.CreatedAt,
	}
}

type createEventReq struct {
	Title    string `json:"title"`
	IsBarHop bool   `json:"is_bar_hop"`
}

func (h *EventHandler) Create(c *gin.Context) {
	var req createEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ev, err := h.events.Create(c.Request.Context(), event.CreateCommand{
		Title:    req.Title,
		IsBarHop: req.IsBarHop,
	})
	if err != nil {
		writeEventError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, eventView(ev))
}

func (h *EventHandler) Get(c *gin.Context) {
	ev, err := h.events.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeEventError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, eventView(ev))
}

func (h *EventHandler) Start(c *gin.Context) {
	if err := h.events.StartRally(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeEventError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": event.StatusLive})
}

type afterPartyReq struct {
	LocationName string `json:"location_name"`
}

func (h *EventHandler) EndToAfterParty(c *gin.Context) {
	var req afterPartyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.events.EndRallyToAfterParty(c.Request.Context(), types.ID(c.Param("id")), req.LocationName); err != nil {
		writeEventError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": event.StatusAfterRally})
}

// Complete closes out the night. Refused with the pending tally while any
// attendee is still participating, undecided or waiting on a DD dropoff.
func (h *EventHandler) Complete(c *gin.Context) {
	if err := h.events.CompleteRally(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeEventError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": event.StatusCompleted})
}

func (h *EventHandler) Cancel(c *gin.Context) {
	if err := h.events.Cancel(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeEventError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": event.StatusCancelled})
}
