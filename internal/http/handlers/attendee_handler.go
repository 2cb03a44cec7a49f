// README: Attendee handlers: join/leave, ride plan, safety actions, prompt.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rally/internal/http/middleware"
	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/types"
)

type AttendeeHandler struct {
	attendees *attendee.Service
	events    *event.Service
}

func NewAttendeeHandler(attendees *attendee.Service, events *event.Service) *AttendeeHandler {
	return &AttendeeHandler{attendees: attendees, events: events}
}

// attendeeView is the wire shape of an attendee, with the derived plan and
// safety state resolved server-side so clients never re-implement the rules.
func attendeeView(a *attendee.Attendee) gin.H {
	return gin.H{
		"event_id":                a.EventID,
		"profile_id":              a.ProfileID,
		"display_name":            a.DisplayName,
		"is_dd":                   a.IsDD,
		"needs_ride":              a.NeedsRide,
		"ride_pickup_location":    a.RidePickupLocation,
		"ride_dropoff_location":   a.RideDropoffLocation,
		"going_home_at":           a.GoingHomeAt,
		"arrived_safely":          a.HasArrivedSafely(),
		"arrived_at":              a.ArrivedAt,
		"after_rally_opted_in":    a.AfterRallyOptedIn,
		"dd_dropoff_confirmed_at": a.DDDropoffConfirmedAt,
		"plan":                    attendee.ResolvePlan(*a),
		"safety_state":            attendee.ResolveSafetyState(*a),
	}
}

type joinReq struct {
	DisplayName string `json:"display_name"`
}

func (h *AttendeeHandler) Join(c *gin.Context) {
	var req joinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.attendees.Join(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)), req.DisplayName)
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, attendeeView(a))
}

func (h *AttendeeHandler) Leave(c *gin.Context) {
	err := h.attendees.Leave(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "left"})
}

func (h *AttendeeHandler) List(c *gin.Context) {
	list, err := h.attendees.List(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, attendeeView(&list[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"attendees": views})
}

type setPlanReq struct {
	IsDD            bool    `json:"is_dd"`
	NeedsRide       bool    `json:"needs_ride"`
	PickupLocation  *string `json:"pickup_location"`
	DropoffLocation *string `json:"dropoff_location"`
}

func (h *AttendeeHandler) SetPlan(c *gin.Context) {
	var req setPlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.attendees.SetRidePlan(c.Request.Context(), attendee.SetPlanCommand{
		EventID:         types.ID(c.Param("id")),
		ProfileID:       types.ID(middleware.CallerUID(c)),
		IsDD:            req.IsDD,
		NeedsRide:       req.NeedsRide,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	})
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attendeeView(a))
}

func (h *AttendeeHandler) RallyHome(c *gin.Context) {
	a, err := h.attendees.RallyHome(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attendeeView(a))
}

func (h *AttendeeHandler) MarkArrived(c *gin.Context) {
	a, err := h.attendees.MarkArrived(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attendeeView(a))
}

func (h *AttendeeHandler) Decline(c *gin.Context) {
	a, err := h.attendees.DeclineParticipation(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attendeeView(a))
}

type afterRallyReq struct {
	OptIn bool `json:"opt_in"`
}

func (h *AttendeeHandler) AfterRallyOptIn(c *gin.Context) {
	var req afterRallyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.attendees.OptIntoAfterRally(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)), req.OptIn)
	if err != nil {
		writeAttendeeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attendeeView(a))
}

// Prompt answers "should the client show the safety dialog right now?".
// transition_point=true marks a bar-hop stop boundary crossing; it lives in
// the query string because it is navigation state, never persisted.
func (h *AttendeeHandler) Prompt(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := types.ID(c.Param("id"))

	ev, err := h.events.Get(ctx, eventID)
	if err != nil {
		writeEventError(c, err)
		return
	}
	a, err := h.attendees.Get(ctx, eventID, types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeAttendeeError(c, err)
		return
	}

	atTransitionPoint := c.Query("transition_point") == "true"
	d := attendee.EvaluatePrompt(*a, attendee.EventContext{
		IsBarHop: ev.IsBarHop,
		Status:   string(ev.Status),
	}, atTransitionPoint)

	writeJSON(c, http.StatusOK, gin.H{
		"can_prompt":                  d.CanPrompt,
		"has_arrived_safely":          d.HasArrivedSafely,
		"is_participating":            d.IsParticipating,
		"is_undecided":                d.IsUndecided,
		"needs_after_rally_reconfirm": d.NeedsAfterRallyReconfirm,
		"needs_bar_hop_reconfirm":     d.NeedsBarHopReconfirm,
		"needs_reconfirmation":        d.NeedsReconfirmation,
	})
}
