package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/checkin/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix.
// Errors that carry several causes (errors.Join and friends) are listed one per line.
func Format(err error) string {
	if err == nil {
		return ""
	}
	multi, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	causes := multi.Unwrap()
	if len(causes) == 1 {
		return Format(causes[0])
	}
	lines := make([]string, 0, len(causes)+1)
	lines = append(lines, fmt.Sprintf("Error: %d problems", len(causes)))
	for _, cause := range causes {
		lines = append(lines, fmt.Sprintf("  - %v", cause))
	}
	return strings.Join(lines, "\n")
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
