package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies where in the pipeline a request failed.
type Kind string

const (
	BadRequest          Kind = "bad_request"
	DependencyMissing   Kind = "dependency_missing"
	NoAudioStream       Kind = "no_audio_stream"
	ExtractionFailed    Kind = "extraction_failed"
	ModelNotReady       Kind = "model_not_ready"
	TranscriptionFailed Kind = "transcription_failed"
	ExportFailed        Kind = "export_failed"
)

type Error struct {
	Kind    Kind
	Code    int
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, err error, message string) *Error {
	code := http.StatusInternalServerError
	if kind == BadRequest {
		code = http.StatusBadRequest
	}
	return &Error{Kind: kind, Code: code, Message: message, Op: op, Err: err}
}

// KindOf returns the kind of err if it carries one, or "" otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf maps err to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}

// MessageOf returns the public message for err. Unclassified errors fall
// back to their Error() string, matching the upstream JSON error envelope.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
