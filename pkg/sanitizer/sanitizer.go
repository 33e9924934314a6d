package sanitizer

import (
	"strings"

	"turfbook/pkg/model"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// Numbers without a country code are tried against these regions in order.
var supportedRegions = []string{
	"IN",
	"US",
	"IL",
}

func SanitizeName(input string) string {
	return TrimAndNormalize(input)
}

func SanitizeEmail(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToLower,
	}
	return p.Apply(input)
}

func SanitizeIdentifier(input string) string {
	return strings.TrimSpace(input)
}

// SanitizePhone formats a parseable number as E.164. Anything else is
// returned trimmed so validation can reject it.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return phone
}

func SanitizeRequester(r *model.Requester) {
	r.Name = SanitizeName(r.Name)
	r.Email = SanitizeEmail(r.Email)
	r.Phone = SanitizePhone(r.Phone)
}

func SanitizeBookingRequest(req *model.BookingRequest) {
	req.VenueID = SanitizeIdentifier(req.VenueID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	SanitizeRequester(&req.Requester)
}

func SanitizeJoinRequest(req *model.JoinRequest) {
	SanitizeRequester(&req.Requester)
}

func SanitizeFilter(f *model.BookingFilter) {
	f.RequesterEmail = SanitizeEmail(f.RequesterEmail)
	f.VenueID = SanitizeIdentifier(f.VenueID)
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
}
