package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
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
	ExitCode   int               `json:"exit_code"`
}

// NewErrorDetail converts any error into its structured form.
func NewErrorDetail(err error) ErrorDetail {
	var ce *checkerr.CheckError
	if errors.As(err, &ce) {
		msg := ce.Message
		if ce.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, ce.Cause)
		}
		return ErrorDetail{
			Code:       ce.Code,
			Message:    msg,
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			ExitCode:   ce.ExitCode,
		}
	}
	return ErrorDetail{
		Code:     checkerr.ErrGeneral.Code,
		Message:  err.Error(),
		ExitCode: checkerr.ExitGeneral,
	}
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: NewErrorDetail(err)}, true)
	}
	return formatErrorText(w, err)
}

// formatErrorText outputs error in text format. Details are sorted by key.
func formatErrorText(w io.Writer, err error) error {
	var sb strings.Builder

	var ce *checkerr.CheckError
	if errors.As(err, &ce) {
		d := NewErrorDetail(err)
		sb.WriteString(fmt.Sprintf("Error: %s\n", d.Message))

		if len(d.Details) > 0 {
			sb.WriteString("\nDetails:\n")
			for _, k := range sortedKeys(d.Details) {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, d.Details[k]))
			}
		}

		if d.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", d.Suggestion))
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
		return writeJSON(w, map[string]string{"status": "success", "message": message}, true)
	}
	_, err := fmt.Fprintln(w, message)
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
