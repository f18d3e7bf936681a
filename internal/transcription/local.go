package transcription

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/logger"
)

// localEngine runs the whisper.cpp CLI against a model file on disk.
type localEngine struct {
	bin       string
	modelPath string
	language  string
	useGPU    bool
	log       *logger.Logger
}

// newLocalEngine verifies the CLI binary and model file exist and
// selects the execution mode. Errors here mean the transcriber stays
// not-ready rather than failing per request.
func newLocalEngine(cfg config.WhisperConfig, log *logger.Logger) (*localEngine, error) {
	bin, err := exec.LookPath(cfg.BinPath)
	if err != nil {
		return nil, errors.Wrapf(err, "whisper binary %q not found", cfg.BinPath)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "whisper model %q not found", cfg.ModelPath)
	}

	useGPU := !cfg.ForceCPU && gpuAvailable()
	device := "cpu"
	if useGPU {
		device = "gpu"
	}
	log.WithField("model", cfg.ModelPath).WithField("device", device).Info("whisper model ready")

	return &localEngine{
		bin:       bin,
		modelPath: cfg.ModelPath,
		language:  cfg.Language,
		useGPU:    useGPU,
		log:       log,
	}, nil
}

func (e *localEngine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := []string{
		"-m", e.modelPath,
		"-f", audioPath,
		"-l", e.language,
		"-nt", // no timestamps
		"-np", // no progress prints
	}
	if !e.useGPU {
		args = append(args, "--no-gpu")
	}
	e.log.WithField("audio_path", audioPath).Debug("running whisper")

	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.Errorf("whisper: %s", msg)
	}
	return stdout.String(), nil
}

// gpuAvailable probes for an NVIDIA device; whisper.cpp falls back to
// CPU on its own, this just keeps the chosen mode visible in logs.
func gpuAvailable() bool {
	if _, err := exec.LookPath("nvidia-smi"); err != nil {
		return false
	}
	return exec.Command("nvidia-smi", "-L").Run() == nil
}
