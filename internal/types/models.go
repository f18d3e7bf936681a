package types

// ExtractedInfo holds the fields pulled out of a transcript by the
// heuristic extractor. A nil field means no pattern matched.
type ExtractedInfo struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

type TranscribeResponse struct {
	Transcription string        `json:"transcription"`
	ExtractedInfo ExtractedInfo `json:"extracted_info"`
}

// ExportRequest mirrors TranscribeResponse; clients post a transcribe
// result back to get it as a spreadsheet.
type ExportRequest struct {
	Transcription string        `json:"transcription,omitempty"`
	ExtractedInfo ExtractedInfo `json:"extracted_info,omitempty"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	WhisperReady bool   `json:"whisper_ready"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
