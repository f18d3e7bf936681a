package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"video-transcribe-go/internal/logger"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

// remoteEngine posts the waveform to a whisper server's /inference
// endpoint. Transient server and network failures are retried with
// exponential backoff; the pipeline itself never retries.
type remoteEngine struct {
	baseURL string
	log     *logger.Logger
}

func newRemoteEngine(baseURL string, log *logger.Logger) *remoteEngine {
	return &remoteEngine{baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (e *remoteEngine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	endpoint := e.baseURL + "/inference"
	bo := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(60*time.Second)), ctx)

	var resp inferenceResponse
	var lastErr error
	op := func() error {
		body, contentType, err := inferenceForm(filepath.Base(audioPath), audio)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)

		res, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer res.Body.Close()
		raw, _ := io.ReadAll(res.Body)
		if res.StatusCode >= 500 {
			lastErr = fmt.Errorf("whisper server error: %s", string(raw))
			return lastErr
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(raw))
			return lastErr
		}
		if resp.Error != "" {
			lastErr = fmt.Errorf("whisper server: %s", resp.Error)
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return "", lastErr
	}
	return resp.Text, nil
}

func inferenceForm(filename string, audio []byte) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	w.WriteField("response_format", "json")
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}
