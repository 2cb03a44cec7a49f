// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"rally/internal/config"
	httptransport "rally/internal/http"
	"rally/internal/http/handlers"
	"rally/internal/infra"
	"rally/internal/maps"
	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/modules/location"
	"rally/internal/modules/notify"
	"rally/internal/modules/ride"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Otel.OTLPAddr != "" {
		shutdown, err := initTracing(ctx, cfg.Otel.OTLPAddr)
		if err != nil {
			fatal("otel init", err)
		}
		defer shutdown()
	}

	if cfg.Firebase.ProjectID == "" {
		fatal("config", errors.New("RALLY_FIREBASE_PROJECT_ID is required"))
	}
	firebaseApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		fatal("firebase init", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		fatal("db init", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	attendeeStore := attendee.NewPGStore(dbPool)
	attendeeSvc := attendee.NewService(attendeeStore, attendee.NewFeed())

	eventStore := event.NewPGStore(dbPool)
	eventSvc := event.NewService(eventStore, attendeeSvc)

	rideStore := ride.NewPGStore(dbPool)
	rideSvc := ride.NewService(rideStore, attendeeSvc)

	notifyStore := notify.NewPGStore(dbPool, redisClient)
	pusher := notify.NewFCMPusher(firebaseApp.Messaging())
	dedupWindow := time.Duration(cfg.Notify.DedupWindowSeconds) * time.Second
	notifySvc := notify.NewService(notifyStore, pusher, rideSvc, attendeeSvc, eventSvc, dedupWindow)

	locationStore := location.NewRedisStore(redisClient)
	locationSvc := location.NewService(locationStore)

	var geocoder handlers.Geocoder
	if cfg.Maps.APIKey != "" {
		geocodeSvc, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			fatal("maps init", err)
		}
		geocoder = geocodeSvc
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		ServiceName: cfg.Otel.ServiceName,
		Verifier:    firebaseApp,
		Attendees:   attendeeSvc,
		Events:      eventSvc,
		Rides:       rideSvc,
		Notifier:    notifySvc,
		Location:    locationSvc,
		Geocoder:    geocoder,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal("http server", err)
	}
}

func initTracing(ctx context.Context, otlpAddr string) (func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, otlpAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(dialCtx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
		_ = conn.Close()
	}, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
