package validator

import (
	"errors"
	"testing"
	"time"

	"turfbook/pkg/logger"
	"turfbook/pkg/model"
)

func newTestValidator() *BookingValidator {
	v := NewBookingValidator(logger.Discard())
	v.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return v
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		VenueID:     "turf-1",
		Date:        "2026-10-20",
		Time:        "18:00",
		PlayerCount: 5,
		IsOpenParty: true,
		Requester: model.Requester{
			Name:  "Ravi Kumar",
			Email: "ravi@example.com",
			Phone: "+919876543210",
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string]any {
	t.Helper()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	return verrs.Fields()
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *model.BookingRequest)
		wantField string
	}{
		{name: "valid", mutate: func(*model.BookingRequest) {}},
		{name: "same day is allowed", mutate: func(r *model.BookingRequest) { r.Date = "2026-10-15" }},
		{name: "zero players", mutate: func(r *model.BookingRequest) { r.PlayerCount = 0 }, wantField: "PlayerCount"},
		{name: "negative players", mutate: func(r *model.BookingRequest) { r.PlayerCount = -3 }, wantField: "PlayerCount"},
		{name: "missing venue", mutate: func(r *model.BookingRequest) { r.VenueID = "" }, wantField: "VenueID"},
		{name: "bad date", mutate: func(r *model.BookingRequest) { r.Date = "20/10/2026" }, wantField: "Date"},
		{name: "bad time", mutate: func(r *model.BookingRequest) { r.Time = "6pm" }, wantField: "Time"},
		{name: "past date", mutate: func(r *model.BookingRequest) { r.Date = "2026-10-01" }, wantField: "Date"},
		{name: "missing name", mutate: func(r *model.BookingRequest) { r.Requester.Name = "" }, wantField: "Requester.Name"},
		{name: "missing email", mutate: func(r *model.BookingRequest) { r.Requester.Email = "" }, wantField: "Requester.Email"},
		{name: "malformed email", mutate: func(r *model.BookingRequest) { r.Requester.Email = "ravi" }, wantField: "Requester.Email"},
		{name: "missing phone", mutate: func(r *model.BookingRequest) { r.Requester.Phone = "" }, wantField: "Requester.Phone"},
		{name: "non e164 phone", mutate: func(r *model.BookingRequest) { r.Requester.Phone = "98765" }, wantField: "Requester.Phone"},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := v.ValidateRequest(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			fields := fieldsOf(t, err)
			if _, ok := fields[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, fields)
			}
		})
	}
}

func TestValidateJoin(t *testing.T) {
	v := newTestValidator()

	ok := &model.JoinRequest{
		PlayerCount: 2,
		Requester:   model.Requester{Name: "Asha", Email: "asha@example.com", Phone: "+919812345678"},
	}
	if err := v.ValidateJoin(ok); err != nil {
		t.Fatalf("expected valid join, got %v", err)
	}

	bad := &model.JoinRequest{PlayerCount: 0}
	fields := fieldsOf(t, v.ValidateJoin(bad))
	for _, f := range []string{"PlayerCount", "Requester.Name", "Requester.Email", "Requester.Phone"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error on %s, got %v", f, fields)
		}
	}
}

func TestValidateFilter(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateFilter(&model.BookingFilter{}); err != nil {
		t.Errorf("empty filter should be valid: %v", err)
	}
	if err := v.ValidateFilter(&model.BookingFilter{Status: model.StatusCancelled}); err != nil {
		t.Errorf("cancelled status should be valid: %v", err)
	}

	fields := fieldsOf(t, v.ValidateFilter(&model.BookingFilter{Status: "archived", RequesterEmail: "nope"}))
	if _, ok := fields["Status"]; !ok {
		t.Errorf("expected Status error, got %v", fields)
	}
	if _, ok := fields["RequesterEmail"]; !ok {
		t.Errorf("expected RequesterEmail error, got %v", fields)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "PlayerCount", Message: "PlayerCount must be at least 1"},
	}
	want := "validation failed: 1 error(s): [PlayerCount: PlayerCount must be at least 1]"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render empty")
	}
}
