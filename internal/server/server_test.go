package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"video-transcribe-go/internal/apperr"
	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/logger"
	"video-transcribe-go/internal/pipeline"
	"video-transcribe-go/internal/types"
)

type stubMedia struct {
	err     error
	tempDir string
}

func (s *stubMedia) ExtractAudio(_ context.Context, videoPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	path := filepath.Join(s.tempDir, "audio.wav")
	if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type stubTranscriber struct {
	text  string
	err   error
	ready bool
}

func (s *stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return s.text, s.err
}

func (s *stubTranscriber) Ready() bool { return s.ready }

func newTestServer(t *testing.T, media *stubMedia, tr *stubTranscriber) *Server {
	t.Helper()
	dir := t.TempDir()
	if media.tempDir == "" {
		media.tempDir = dir
	}
	cfg := config.Config{
		Port:           "0",
		TempDir:        dir,
		MaxUploadBytes: 10 << 20,
	}
	log := logger.New()
	p := pipeline.New(media, tr, dir, log)
	return New(cfg, log, p, tr)
}

func videoForm(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake video bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &b, w.FormDataContentType()
}

func TestHome(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "Whisper Transcription API is running" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestHealth(t *testing.T) {
	for _, ready := range []bool{true, false} {
		srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: ready})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var res types.HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Status != "healthy" {
			t.Errorf("expected status healthy, got %q", res.Status)
		}
		if res.WhisperReady != ready {
			t.Errorf("expected whisper_ready=%v, got %v", ready, res.WhisperReady)
		}
	}
}

func TestTranscribeMissingVideo(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})

	body, contentType := videoForm(t, "not_video", "clip.mp4")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var res types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Error != "No video file provided" {
		t.Errorf("unexpected error message: %q", res.Error)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	tr := &stubTranscriber{ready: true, text: "my name is John Smith. I'm from London."}
	srv := newTestServer(t, &stubMedia{}, tr)

	body, contentType := videoForm(t, "video", "clip.mp4")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res types.TranscribeResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Transcription != tr.text {
		t.Errorf("unexpected transcription: %q", res.Transcription)
	}
	if res.ExtractedInfo.Name == nil || *res.ExtractedInfo.Name != "John Smith" {
		t.Errorf("unexpected name: %v", res.ExtractedInfo.Name)
	}
	if res.ExtractedInfo.Location == nil || *res.ExtractedInfo.Location != "London" {
		t.Errorf("unexpected location: %v", res.ExtractedInfo.Location)
	}
}

func TestTranscribeNoAudioStream(t *testing.T) {
	media := &stubMedia{
		err: apperr.New(apperr.NoAudioStream, "media.ExtractAudio", nil, "No audio stream found in video"),
	}
	srv := newTestServer(t, media, &stubTranscriber{ready: true})

	body, contentType := videoForm(t, "video", "clip.mp4")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var res types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Error != "No audio stream found in video" {
		t.Errorf("unexpected error message: %q", res.Error)
	}
}

func TestTranscribeModelNotReady(t *testing.T) {
	tr := &stubTranscriber{
		err: apperr.New(apperr.ModelNotReady, "transcription.Transcribe", nil, "Whisper model not loaded"),
	}
	srv := newTestServer(t, &stubMedia{}, tr)

	body, contentType := videoForm(t, "video", "clip.mp4")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Whisper model not loaded") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestExportBadBody(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})

	for _, body := range []string{"", "not json", "{}"} {
		req := httptest.NewRequest(http.MethodPost, "/download_excel", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "No JSON data provided") {
			t.Errorf("body %q: unexpected response: %s", body, rec.Body.String())
		}
	}
}

func TestExportZeroValuedFieldsStillRenderRow(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})

	for _, body := range []string{
		`{"transcription":""}`,
		`{"extracted_info":{}}`,
		`{"transcription":"","extracted_info":{"name":null,"location":null}}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/download_excel", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: expected 200, got %d: %s", body, rec.Code, rec.Body.String())
		}
		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("body %q: open workbook: %v", body, err)
		}
		sheet := f.GetSheetName(0)
		for cell, want := range map[string]string{"A2": "N/A", "B2": "N/A", "C2": ""} {
			v, err := f.GetCellValue(sheet, cell)
			if err != nil {
				t.Fatalf("read %s: %v", cell, err)
			}
			if v != want {
				t.Errorf("body %q cell %s: expected %q, got %q", body, cell, want, v)
			}
		}
		f.Close()
	}
}

func TestExportSuccess(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})

	payload := `{"transcription":"hello there","extracted_info":{"name":"Jane Doe","location":null}}`
	req := httptest.NewRequest(http.MethodPost, "/download_excel", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "transcription_data.xlsx") {
		t.Errorf("unexpected content disposition: %q", got)
	}

	data, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	for cell, want := range map[string]string{"A2": "N/A", "B2": "Jane Doe", "C2": "hello there"} {
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if v != want {
			t.Errorf("cell %s: expected %q, got %q", cell, want, v)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &stubMedia{}, &stubTranscriber{ready: true})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/transcribe", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected permissive CORS header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
