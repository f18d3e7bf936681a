package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"video-transcribe-go/internal/extractor"
	"video-transcribe-go/internal/logger"
	"video-transcribe-go/internal/types"
)

// AudioExtractor demuxes a staged video into a temp waveform file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
}

// Transcriber converts a waveform file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Pipeline runs one upload through staging, audio extraction,
// transcription and field extraction. Both temp files it creates are
// removed on every exit path before Run returns, success or failure.
type Pipeline struct {
	media       AudioExtractor
	transcriber Transcriber
	tempDir     string
	log         *logger.Logger
}

func New(media AudioExtractor, transcriber Transcriber, tempDir string, log *logger.Logger) *Pipeline {
	return &Pipeline{
		media:       media,
		transcriber: transcriber,
		tempDir:     tempDir,
		log:         log,
	}
}

// Run stages the uploaded video bytes to a uuid-named temp file and
// drives the stages in order. Any stage error aborts the rest; no
// partial result is ever returned.
func (p *Pipeline) Run(ctx context.Context, video io.Reader, filename string) (types.TranscribeResponse, error) {
	videoPath, err := p.stage(video, filename)
	if err != nil {
		return types.TranscribeResponse{}, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer p.remove(videoPath)

	audioPath, err := p.media.ExtractAudio(ctx, videoPath)
	if err != nil {
		return types.TranscribeResponse{}, err
	}
	defer p.remove(audioPath)

	text, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return types.TranscribeResponse{}, err
	}

	return types.TranscribeResponse{
		Transcription: text,
		ExtractedInfo: extractor.Extract(text),
	}, nil
}

func (p *Pipeline) stage(video io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp4"
	}
	path := filepath.Join(p.tempDir, uuid.New().String()+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, video); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (p *Pipeline) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.log.WithError(err).WithField("path", path).Warn("temp file cleanup failed")
	}
}
