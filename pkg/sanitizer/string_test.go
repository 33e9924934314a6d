package sanitizer

import (
	"testing"

	"turfbook/pkg/model"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "multiple spaces",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\nworld",
			want:  "hello world",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Turf™ ",
			want:  "Café & Turf™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Ravi@Example.COM ", "ravi@example.com"},
		{"ravi@example.com", "ravi@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeEmail(tt.input); got != tt.want {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeBookingRequest(t *testing.T) {
	req := &model.BookingRequest{
		VenueID:     "  turf-7 ",
		Date:        " 2026-10-20",
		Time:        "18:00 ",
		PlayerCount: 4,
		Requester: model.Requester{
			Name:  "  Ravi   Kumar ",
			Email: " RAVI@example.com",
			Phone: "+91 98765 43210",
		},
	}

	SanitizeBookingRequest(req)

	if req.VenueID != "turf-7" || req.Date != "2026-10-20" || req.Time != "18:00" {
		t.Errorf("slot fields not trimmed: %q %q %q", req.VenueID, req.Date, req.Time)
	}
	if req.Requester.Name != "Ravi Kumar" {
		t.Errorf("Name = %q", req.Requester.Name)
	}
	if req.Requester.Email != "ravi@example.com" {
		t.Errorf("Email = %q", req.Requester.Email)
	}
	if req.Requester.Phone != "+919876543210" {
		t.Errorf("Phone = %q", req.Requester.Phone)
	}
}

func TestSanitizeFilter(t *testing.T) {
	f := &model.BookingFilter{RequesterEmail: " A@B.io ", VenueID: " v1 ", Status: " Cancelled"}
	SanitizeFilter(f)
	if f.RequesterEmail != "a@b.io" || f.VenueID != "v1" || f.Status != "cancelled" {
		t.Errorf("unexpected filter %+v", f)
	}
}
