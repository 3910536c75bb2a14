package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"os-presenter/internal/documents"
	"os-presenter/internal/platform/config"
	"os-presenter/internal/platform/logger"
	"os-presenter/internal/platform/metrics"
	"os-presenter/internal/presenter"
	"os-presenter/internal/videosync"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	dataDir := config.GetEnv("DATA_DIR", "./data")
	presenterWindow := config.GetEnv("PRESENTER_WINDOW", "main")
	tick := config.GetEnvDuration("VIDEO_SYNC_TICK", videosync.DefaultTickInterval)

	log := logger.New(logLevel, logFormat)
	met := metrics.New()

	store, err := documents.NewStore(dataDir, log)
	if err != nil {
		log.Error("open data dir", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureDirectories(); err != nil {
		log.Error("create data directories", "error", err)
		os.Exit(1)
	}

	hubCfg := presenter.DefaultConfig()
	hubCfg.WriteWait = config.GetEnvDuration("WS_WRITE_WAIT", hubCfg.WriteWait)
	hubCfg.PongWait = config.GetEnvDuration("WS_PONG_WAIT", hubCfg.PongWait)
	hubCfg.PingInterval = hubCfg.PongWait * 9 / 10
	hubCfg.MaxMessageSize = int64(config.GetEnvInt("WS_MAX_MESSAGE_SIZE", int(hubCfg.MaxMessageSize)))

	// Window commands are routed to the video handler, which needs the hub
	// to exist first.
	var videoHandler *videosync.Handler
	hub := presenter.NewHub(hubCfg, log, met, func(window, event string, payload json.RawMessage) {
		videoHandler.HandleWindowMessage(window, event, payload)
	})

	mgr := videosync.NewManager(hub.Window(presenterWindow), videosync.Options{
		TickInterval: tick,
		Logger:       log,
		Metrics:      met,
	})
	videoHandler = videosync.NewHandler(mgr, log)
	docs := documents.NewHandler(store, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetConnectedWindows(hub.ConnectedWindows()) }).ServeHTTP(w, r)
	})
	r.Get("/ws/windows/{label}", hub.ServeWS)
	r.Get("/api/video/state", videoHandler.GetState)
	r.Post("/api/video/state", videoHandler.UpdateState)
	r.Delete("/api/video/state", videoHandler.ClearState)
	docs.Mount(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"data_dir", store.Root(),
		"presenter_window", presenterWindow,
		"video_sync_tick", tick.String(),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	if err := mgr.Close(); err != nil {
		log.Warn("video sync close", "error", err)
	}
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
