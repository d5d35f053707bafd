package todo

import (
	"errors"
	"testing"
	"time"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"simple", "42", 42, false},
		{"leading zeros", "007", 7, false},
		{"max int64", "9223372036854775807", 9223372036854775807, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, true},
		{"plus sign", "+5", 0, true},
		{"trailing text", "12abc", 0, true},
		{"decimal", "1.5", 0, true},
		{"exponent", "1e3", 0, true},
		{"spaces", " 3 ", 0, true},
		{"overflow", "9223372036854775808", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable(cause)

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("expected ErrStoreUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("unexpected ErrNotFound")
	}

	nf := NotFound(9)
	if !errors.Is(nf, ErrNotFound) {
		t.Error("expected ErrNotFound")
	}
	if nf.Error() != "todo with id 9 not found" {
		t.Errorf("unexpected message %q", nf.Error())
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2024, 3, 10, 23, 59, 0, 0, loc)

	start, end := DayBounds(at)

	if !start.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected end %v", end)
	}
}
