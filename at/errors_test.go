package at_test

import (
	"errors"
	"testing"

	"github.com/telemux/modemctl/at"
)

func TestCheckLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		facility at.Facility
		code     int
	}{
		{name: "CME error with code", input: "+CME ERROR: 3", facility: at.FacilityCME, code: 3},
		{name: "CME error verbose", input: "+CME ERROR: operation not allowed", facility: at.FacilityCME, code: -1},
		{name: "CMS error with code", input: "+CMS ERROR: 500", facility: at.FacilityCMS, code: 500},
		{name: "Bare ERROR", input: "ERROR", facility: at.FacilityFinal, code: -1},
		{name: "NO CARRIER", input: "NO CARRIER", facility: at.FacilityFinal, code: -1},
		{name: "BUSY", input: "BUSY", facility: at.FacilityFinal, code: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := at.CheckLine(tt.input)
			if err == nil {
				t.Fatalf("CheckLine(%q) = nil, want *CommandError", tt.input)
			}
			var cmdErr *at.CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("CheckLine(%q) = %T, want *CommandError", tt.input, err)
			}
			if cmdErr.Facility != tt.facility {
				t.Errorf("Facility = %q, want %q", cmdErr.Facility, tt.facility)
			}
			if cmdErr.Code != tt.code {
				t.Errorf("Code = %d, want %d", cmdErr.Code, tt.code)
			}
			if cmdErr.Message != tt.input {
				t.Errorf("Message = %q, want %q", cmdErr.Message, tt.input)
			}
		})
	}
}

func TestCheckLineClean(t *testing.T) {
	for _, line := range []string{
		"OK",
		"",
		"+CSQ: 15,99",
		"RSSI: 23",
		"CONNECT 7200000",
		"garbage",
		// Error tokens are matched on the whole line, not substrings.
		"last response was ERROR",
	} {
		if err := at.CheckLine(line); err != nil {
			t.Errorf("CheckLine(%q) = %v, want nil", line, err)
		}
	}
}
