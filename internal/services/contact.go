package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/abrezinsky/prizewheel/internal/models"
)

// DefaultPhoneRegion is used for phone numbers written without a country code
const DefaultPhoneRegion = "US"

var contactValidator = validator.New()

// ValidatePhoneRegion reports an error unless region is a known
// two-letter region code, and returns it upper-cased
func ValidatePhoneRegion(region string) (string, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return "", fmt.Errorf("unknown phone region %q", region)
	}
	return region, nil
}

// ClassifyContact normalizes a visitor contact value and reports whether it
// is an email address or a phone number. Emails are lower-cased. Phone
// numbers are formatted as E.164, reading numbers without a country code
// as belonging to region, so every spelling of a number gives one identity.
func ClassifyContact(raw, region string) (string, models.ContactType, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", models.ContactNone, ErrContactRequired
	}

	if strings.Contains(value, "@") {
		email := strings.ToLower(value)
		if contactValidator.Var(email, "email") != nil {
			return "", models.ContactNone, ErrInvalidContact
		}
		return email, models.ContactEmail, nil
	}

	// 00 is the international prefix in most regions and never starts a
	// national number in the others
	if strings.HasPrefix(value, "00") {
		value = "+" + value[2:]
	}
	num, err := phonenumbers.Parse(value, region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", models.ContactNone, ErrInvalidContact
	}
	return phonenumbers.Format(num, phonenumbers.E164), models.ContactPhone, nil
}

// resolveContact applies the contact requirement of a wheel. An empty
// contact is allowed only when the rules do not require one.
func resolveContact(raw, region string, rules models.SpinRules) (string, models.ContactType, error) {
	if strings.TrimSpace(raw) == "" {
		if rules.RequireContact {
			return "", models.ContactNone, ErrContactRequired
		}
		return "", models.ContactNone, nil
	}
	return ClassifyContact(raw, region)
}
