package transcription

import (
	"context"
	"strings"

	"video-transcribe-go/internal/apperr"
	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/logger"
)

// Engine converts a waveform file to text.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Transcriber wraps a speech-to-text engine behind a readiness flag.
// It is constructed once at startup and injected into the pipeline;
// inference shares the engine read-only across requests.
type Transcriber struct {
	engine Engine
	ready  bool
	log    *logger.Logger
}

// New picks an engine from config: mock when USE_MOCK_TRANSCRIBE is
// set, a remote whisper server when WHISPER_SERVER_URL is set, the
// local whisper.cpp CLI otherwise. A failed local probe leaves the
// transcriber constructed but not ready; transcription then fails
// fast instead of shelling out to a broken setup.
func New(cfg config.WhisperConfig, log *logger.Logger) *Transcriber {
	log = &logger.Logger{Entry: log.WithField("module", "transcription")}

	if cfg.UseMock {
		log.Info("using mock transcription engine")
		return &Transcriber{engine: mockEngine{}, ready: true, log: log}
	}

	if cfg.ServerURL != "" {
		log.WithField("server_url", cfg.ServerURL).Info("using remote whisper server")
		return &Transcriber{engine: newRemoteEngine(cfg.ServerURL, log), ready: true, log: log}
	}

	eng, err := newLocalEngine(cfg, log)
	if err != nil {
		log.WithError(err).Warn("whisper model not ready")
		return &Transcriber{log: log}
	}
	return &Transcriber{engine: eng, ready: true, log: log}
}

// Ready reports whether the model loaded at startup; /health exposes it.
func (t *Transcriber) Ready() bool {
	return t.ready
}

// Transcribe returns the full decoded text for audioPath. No partial
// results, segments, or confidence scores are exposed.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	const op = "transcription.Transcribe"

	if !t.ready {
		return "", apperr.New(apperr.ModelNotReady, op, nil, "Whisper model not loaded")
	}

	text, err := t.engine.Transcribe(ctx, audioPath)
	if err != nil {
		return "", apperr.New(apperr.TranscriptionFailed, op, err, err.Error())
	}
	return strings.TrimSpace(text), nil
}

// mockEngine returns a canned transcript. Kept for offline demos and
// tests; enabled via USE_MOCK_TRANSCRIBE=true.
type mockEngine struct{}

func (mockEngine) Transcribe(context.Context, string) (string, error) {
	return "MOCK TRANSCRIPT: Hello, my name is John Smith. I'm from London.", nil
}
