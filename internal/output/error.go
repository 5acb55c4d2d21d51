package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// NewErrorDetail converts err into its JSON shape.
func NewErrorDetail(err error) ErrorDetail {
	var de *droperr.DropError
	if !errors.As(err, &de) {
		return ErrorDetail{
			Code:     "GENERAL_ERROR",
			Message:  err.Error(),
			ExitCode: droperr.ExitGeneral,
		}
	}

	detail := ErrorDetail{
		Code:       de.Code,
		Message:    de.Message,
		Details:    de.Details,
		Suggestion: de.Suggestion,
		ExitCode:   de.ExitCode,
	}
	if de.Cause != nil {
		detail.Cause = de.Cause.Error()
	}
	return detail
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: NewErrorDetail(err)})
	}
	return formatErrorText(w, err)
}

// formatErrorText outputs error in text format. Detail keys are sorted.
func formatErrorText(w io.Writer, err error) error {
	var sb strings.Builder

	var de *droperr.DropError
	if errors.As(err, &de) {
		msg := de.Message
		if de.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, de.Cause)
		}
		sb.WriteString(fmt.Sprintf("Error: %s\n", msg))

		if len(de.Details) > 0 {
			keys := make([]string, 0, len(de.Details))
			for k := range de.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			sb.WriteString("\nDetails:\n")
			for _, k := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, de.Details[k]))
			}
		}

		if de.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", de.Suggestion))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %s\n", err.Error()))
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
