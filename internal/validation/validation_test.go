package validation

import (
	"errors"
	"testing"

	"github.com/mmeshcher/agrosurplus/internal/model"
)

func TestIsISODate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{
			name:  "valid date",
			value: "2025-03-14",
			valid: true,
		},
		{
			name:  "leap day",
			value: "2024-02-29",
			valid: true,
		},
		{
			name:  "not a leap year",
			value: "2023-02-29",
			valid: false,
		},
		{
			name:  "single digit month",
			value: "2025-3-14",
			valid: false,
		},
		{
			name:  "slashes",
			value: "2025/03/14",
			valid: false,
		},
		{
			name:  "with time",
			value: "2025-03-14T10:00:00Z",
			valid: false,
		},
		{
			name:  "empty string",
			value: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsISODate(tt.value)
			if got != tt.valid {
				t.Fatalf("IsISODate(%q) = %v, want %v", tt.value, got, tt.valid)
			}
		})
	}
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate("2025-12-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-12-01" {
		t.Fatalf("expected 2025-12-01, got %s", d)
	}

	if _, err := ParseISODate("01-12-2025"); !errors.Is(err, model.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := ParseISODate(""); !errors.Is(err, model.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, raw := range []string{"0", "-1", "abc", ""} {
		if _, err := ParseID(raw); !errors.Is(err, model.ErrInvalidFormat) {
			t.Fatalf("ParseID(%q): expected ErrInvalidFormat, got %v", raw, err)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		limit   string
		want    model.Page
		wantErr bool
	}{
		{
			name: "defaults",
			want: model.Page{Page: 1, Limit: DefaultPageLimit, Offset: 0},
		},
		{
			name:  "third page",
			page:  "3",
			limit: "20",
			want:  model.Page{Page: 3, Limit: 20, Offset: 40},
		},
		{
			name:  "limit clamped",
			limit: "1000",
			want:  model.Page{Page: 1, Limit: MaxPageLimit, Offset: 0},
		},
		{
			name:    "zero page",
			page:    "0",
			wantErr: true,
		},
		{
			name:    "page overflows offset",
			page:    "9223372036854775807",
			limit:   "200",
			wantErr: true,
		},
		{
			name:    "page out of int range",
			page:    "99999999999999999999",
			wantErr: true,
		},
		{
			name:  "last page in range",
			page:  "10737419",
			limit: "200",
			want:  model.Page{Page: 10737419, Limit: 200, Offset: 2147483600},
		},
		{
			name:    "garbage limit",
			limit:   "ten",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePage(tt.page, tt.limit)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidFormat) {
					t.Fatalf("expected ErrInvalidFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParsePage(%q, %q) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
			}
		})
	}
}
