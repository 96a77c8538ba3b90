package domain

import (
	"errors"
	"strings"
)

type ReportFormat string

const (
	ReportFormatText ReportFormat = "txt"
	ReportFormatJSON ReportFormat = "json"
)

func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportFormatText:
		return ReportFormatText, nil
	case ReportFormatJSON:
		return ReportFormatJSON, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse report format "+raw,
			errors.New("Unsupported format. Use 'txt' or 'json'"))
	}
}

type Report struct {
	Filename    string
	ContentType string
	Body        []byte
}
