package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/logger"
	"video-transcribe-go/internal/media"
	"video-transcribe-go/internal/pipeline"
	"video-transcribe-go/internal/server"
	"video-transcribe-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "video-transcribe-go").Info("starting service")

	cfg := config.Load()

	// Model load happens here, before any request is served.
	transcriber := transcription.New(cfg.Whisper, log)
	log.WithField("whisper_ready", transcriber.Ready()).Info("transcriber initialized")

	audio := media.NewExtractor(cfg.Media, cfg.TempDir, log)
	if err := audio.CheckDependencies(context.Background()); err != nil {
		log.WithError(err).Warn("ffmpeg not available; transcribe requests will fail")
	}

	p := pipeline.New(audio, transcriber, cfg.TempDir, log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      server.New(cfg, log, p, transcriber),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}
