package export

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"video-transcribe-go/internal/apperr"
	"video-transcribe-go/internal/types"
)

// Placeholder stands in for extracted fields no pattern matched.
const Placeholder = "N/A"

// Filename is the attachment name offered to the client. The workbook
// itself is built per request and never written to a shared path.
const Filename = "transcription_data.xlsx"

// Workbook renders one transcribe result as a single-row spreadsheet
// with Location, Name and Transcription columns.
func Workbook(req types.ExportRequest) (*bytes.Buffer, error) {
	const op = "export.Workbook"

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells := map[string]string{
		"A1": "Location",
		"B1": "Name",
		"C1": "Transcription",
		"A2": orPlaceholder(req.ExtractedInfo.Location),
		"B2": orPlaceholder(req.ExtractedInfo.Name),
		"C2": req.Transcription,
	}
	for cell, v := range cells {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return nil, apperr.New(apperr.ExportFailed, op, err, err.Error())
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.New(apperr.ExportFailed, op, err, err.Error())
	}
	return buf, nil
}

func orPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}
