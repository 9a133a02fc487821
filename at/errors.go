package at

import (
	"fmt"
	"strconv"
	"strings"
)

// Facility identifies which part of the result-code vocabulary a
// classified error token came from.
type Facility string

const (
	// FacilityCME covers mobile-equipment errors ("+CME ERROR: <n>").
	FacilityCME Facility = "CME"
	// FacilityCMS covers message-service errors ("+CMS ERROR: <n>").
	FacilityCMS Facility = "CMS"
	// FacilityFinal covers bare final result words (ERROR, NO CARRIER, BUSY...).
	FacilityFinal Facility = "FINAL"
)

// CommandError is a classified error token observed in a response line.
// It aborts the transaction it was observed in; nothing collected before
// it is returned to the caller.
type CommandError struct {
	// Facility is the vocabulary the token belongs to.
	Facility Facility
	// Code is the vendor numeric code, or -1 when the token carries none.
	Code int
	// Message is the raw token text as read from the channel.
	Message string
}

func (e *CommandError) Error() string {
	if e.Code >= 0 {
		return fmt.Sprintf("command failed: %s error %d", e.Facility, e.Code)
	}
	return fmt.Sprintf("command failed: %s", e.Message)
}

// finalErrors are the result words that terminate a failed command on
// their own line. OK is deliberately absent.
var finalErrors = []string{
	ERROR,
	NoCarrier,
	NoDialtone,
	Busy,
	NoAnswer,
}

// CheckLine scans one response line against the classified error
// vocabulary. It returns a *CommandError if the line is an error token
// and nil otherwise. Every line of a transaction is run through this
// before any other handling.
func CheckLine(line string) error {
	switch {
	case strings.HasPrefix(line, CmeError):
		return &CommandError{Facility: FacilityCME, Code: parseCode(line, CmeError), Message: line}
	case strings.HasPrefix(line, CmsError):
		return &CommandError{Facility: FacilityCMS, Code: parseCode(line, CmsError), Message: line}
	}
	for _, word := range finalErrors {
		if line == word {
			return &CommandError{Facility: FacilityFinal, Code: -1, Message: line}
		}
	}
	return nil
}

func parseCode(line, prefix string) int {
	rest := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	code, err := strconv.Atoi(rest)
	if err != nil {
		// Verbose-mode modems report a text reason instead of a code.
		return -1
	}
	return code
}
