package media

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"video-transcribe-go/internal/apperr"
	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/logger"
)

// Extractor demuxes a video's audio track into a mono 16kHz s16le WAV
// via ffmpeg. Output files land in tempDir under uuid names, so
// concurrent requests never collide.
type Extractor struct {
	ffmpeg  string
	ffprobe string
	tempDir string
	log     *logger.Logger
}

func NewExtractor(cfg config.MediaConfig, tempDir string, log *logger.Logger) *Extractor {
	return &Extractor{
		ffmpeg:  cfg.FFmpegPath,
		ffprobe: cfg.FFprobePath,
		tempDir: tempDir,
		log:     log,
	}
}

// CheckDependencies probes that ffmpeg and ffprobe are present and
// runnable. No side effects.
func (e *Extractor) CheckDependencies(ctx context.Context) error {
	const op = "media.CheckDependencies"
	for _, bin := range []string{e.ffmpeg, e.ffprobe} {
		if err := exec.CommandContext(ctx, bin, "-version").Run(); err != nil {
			return apperr.New(apperr.DependencyMissing, op,
				errors.Wrapf(err, "probe %s", bin),
				"ffmpeg is not installed or not working properly")
		}
	}
	return nil
}

// ExtractAudio transcodes videoPath's audio stream to a new temp WAV
// file and returns its path. The caller owns the file on success; on
// any failure no file is left behind.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	const op = "media.ExtractAudio"

	if err := e.CheckDependencies(ctx); err != nil {
		return "", err
	}

	ok, err := e.hasAudioStream(ctx, videoPath)
	if err != nil {
		return "", apperr.New(apperr.ExtractionFailed, op, err, err.Error())
	}
	if !ok {
		return "", apperr.New(apperr.NoAudioStream, op, nil, "No audio stream found in video")
	}

	audioPath := filepath.Join(e.tempDir, uuid.New().String()+".wav")
	cmd := exec.CommandContext(ctx, e.ffmpeg,
		"-y", "-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		// Do not leak a partially written file on the failure path.
		if rmErr := os.Remove(audioPath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.log.WithError(rmErr).WithField("audio_path", audioPath).Warn("failed to remove partial audio file")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", apperr.New(apperr.ExtractionFailed, op, errors.Wrap(err, "ffmpeg"), msg)
	}

	e.log.WithField("audio_path", audioPath).Debug("audio extracted")
	return audioPath, nil
}

// hasAudioStream asks ffprobe whether the container carries at least
// one audio stream.
func (e *Extractor) hasAudioStream(ctx context.Context, videoPath string) (bool, error) {
	cmd := exec.CommandContext(ctx, e.ffprobe,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		if stderr == "" {
			stderr = err.Error()
		}
		return false, errors.Errorf("ffprobe: %s", stderr)
	}
	return strings.TrimSpace(string(out)) != "", nil
}
