// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"rally/internal/http/handlers"
	"rally/internal/http/middleware"
	"rally/internal/infra"
	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/modules/location"
	"rally/internal/modules/notify"
	"rally/internal/modules/ride"
)

type ServerDeps struct {
	ServiceName string
	Verifier    infra.TokenVerifier
	Attendees   *attendee.Service
	Events      *event.Service
	Rides       *ride.Service
	Notifier    *notify.Service
	Location    *location.Service
	Geocoder    handlers.Geocoder
}

type Server struct {
	serviceName string
	verifier    infra.TokenVerifier
	attendees   *attendee.Service
	events      *event.Service
	rides       *ride.Service
	notifier    *notify.Service
	location    *location.Service
	geocoder    handlers.Geocoder
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		serviceName: deps.ServiceName,
		verifier:    deps.Verifier,
		attendees:   deps.Attendees,
		events:      deps.Events,
		rides:       deps.Rides,
		notifier:    deps.Notifier,
		location:    deps.Location,
		geocoder:    deps.Geocoder,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(
		sloggin.NewWithConfig(slog.Default().WithGroup("http"), sloggin.Config{
			DefaultLevel:     slog.LevelInfo,
			ClientErrorLevel: slog.LevelWarn,
			ServerErrorLevel: slog.LevelError,
		}),
		middleware.Recovery(),
		otelgin.Middleware(s.serviceName),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(s.verifier))

	eventHandler := handlers.NewEventHandler(s.events)
	api.POST("/events", eventHandler.Create)
	api.GET("/events/:id", eventHandler.Get)
	api.POST("/events/:id/start", eventHandler.Start)
	api.POST("/events/:id/after-rally", eventHandler.EndToAfterParty)
	api.POST("/events/:id/complete", eventHandler.Complete)
	api.POST("/events/:id/cancel", eventHandler.Cancel)

	attendeeHandler := handlers.NewAttendeeHandler(s.attendees, s.events)
	api.POST("/events/:id/attendees", attendeeHandler.Join)
	api.GET("/events/:id/attendees", attendeeHandler.List)
	api.DELETE("/events/:id/attendees/me", attendeeHandler.Leave)
	api.PUT("/events/:id/attendees/me/plan", attendeeHandler.SetPlan)
	api.POST("/events/:id/rally-home", attendeeHandler.RallyHome)
	api.POST("/events/:id/arrived", attendeeHandler.MarkArrived)
	api.POST("/events/:id/decline", attendeeHandler.Decline)
	api.PUT("/events/:id/after-rally-opt-in", attendeeHandler.AfterRallyOptIn)
	api.GET("/events/:id/prompt", attendeeHandler.Prompt)

	feedHandler := handlers.NewFeedHandler(s.attendees.Feed())
	api.GET("/events/:id/feed", feedHandler.Stream)

	rideHandler := handlers.NewRideHandler(s.rides)
	api.POST("/events/:id/rides", rideHandler.Offer)
	api.GET("/events/:id/rides", rideHandler.ListByEvent)
	api.POST("/rides/:ride_id/requests", rideHandler.RequestSeat)
	api.POST("/rides/:ride_id/requests/:passenger_id/respond", rideHandler.Respond)
	api.GET("/events/:id/car-group", rideHandler.CarGroup)
	api.GET("/events/:id/dropoffs/confirmable", rideHandler.ConfirmablePassengers)
	api.POST("/events/:id/dropoffs/:passenger_id/confirm", rideHandler.ConfirmDropoff)

	notifyHandler := handlers.NewNotifyHandler(s.notifier)
	api.POST("/events/:id/rally-home/notify", notifyHandler.NotifyCarGroup)

	locationHandler := handlers.NewLocationHandler(s.location, s.geocoder)
	api.PUT("/events/:id/drivers/me/location", locationHandler.UpdatePosition)
	api.GET("/events/:id/drivers/:driver_id/eta", locationHandler.DriverETA)

	return r
}
