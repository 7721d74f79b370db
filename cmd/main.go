package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"github.com/ukydev/fleet-maintenance/internal/scheduler"
	"github.com/ukydev/fleet-maintenance/internal/vin"
)

// sweepInterval reads SWEEP_INTERVAL_MINUTES, defaulting to one hour.
func sweepInterval() time.Duration {
	if v := os.Getenv("SWEEP_INTERVAL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
		log.WithField("value", v).Warn("Ignoring invalid SWEEP_INTERVAL_MINUTES")
	}
	return time.Hour
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}
	log.SetFormatter(&log.JSONFormatter{})

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "fleet_maintenance"
	}
	cols := db.NewCollections(client.Database(dbName))

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize auth service")
	}

	decoder := vin.NewDecoder()
	engine := maintenance.NewEngine(cols.Schedules)

	inApp, err := notify.NewMQTTPublisher()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MQTT broker")
	}
	defer inApp.Close()
	sender := &notify.Router{Gateway: notify.NewGatewaySender(), InApp: inApp}

	cfg := scheduler.DefaultConfig()
	cfg.Interval = sweepInterval()
	sched := scheduler.New(cols, sender, cfg)
	sched.Start()

	vehicleHandler := handlers.NewVehicleHandler(decoder, engine, cols)
	authHandler := handlers.NewAuthHandler(authService)
	maintHandler := handlers.NewMaintenanceHandler(sched)
	authMW := middleware.NewAuthMiddleware(authService)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/vehicles", vehicleHandler.RegisterVehicle)
	mux.HandleFunc("/api/vehicles/", vehicleHandler.VehicleSubresource)
	mux.Handle("/api/maintenance/sweep",
		authMW.RequireRole(auth.RoleAdmin)(http.HandlerFunc(maintHandler.TriggerSweep)))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: authMW.Authenticate(mux),
	}

	go func() {
		log.WithField("port", port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown failed")
	}
	sched.Stop()
}
