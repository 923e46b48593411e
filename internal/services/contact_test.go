package services_test

import (
	"testing"

	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/services"
)

func TestClassifyContact(t *testing.T) {
	tests := []struct {
		input    string
		region   string
		want     string
		wantType models.ContactType
		wantErr  error
	}{
		{"a@b.com", "US", "a@b.com", models.ContactEmail, nil},
		{"  Visitor@Example.COM ", "US", "visitor@example.com", models.ContactEmail, nil},
		{"+1 (555) 123-4567", "US", "+15551234567", models.ContactPhone, nil},
		{"555.123.4567", "US", "+15551234567", models.ContactPhone, nil},
		{"1 555 123 4567", "US", "+15551234567", models.ContactPhone, nil},
		{"001 555 123 4567", "US", "+15551234567", models.ContactPhone, nil},
		{"020 7946 0958", "GB", "+442079460958", models.ContactPhone, nil},
		{"+1 555 123 4567", "GB", "+15551234567", models.ContactPhone, nil},
		{"123456", "US", "", models.ContactNone, services.ErrInvalidContact},
		{"1234567890123456", "US", "", models.ContactNone, services.ErrInvalidContact},
		{"not-an-email@", "US", "", models.ContactNone, services.ErrInvalidContact},
		{"call me maybe", "US", "", models.ContactNone, services.ErrInvalidContact},
		{"   ", "US", "", models.ContactNone, services.ErrContactRequired},
	}

	for _, tt := range tests {
		t.Run(tt.region+"/"+tt.input, func(t *testing.T) {
			got, kind, err := services.ClassifyContact(tt.input, tt.region)
			if err != tt.wantErr {
				t.Fatalf("ClassifyContact(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want || kind != tt.wantType {
				t.Errorf("ClassifyContact(%q) = (%q, %s), want (%q, %s)", tt.input, got, kind, tt.want, tt.wantType)
			}
		})
	}
}

func TestValidatePhoneRegion(t *testing.T) {
	got, err := services.ValidatePhoneRegion(" gb ")
	if err != nil || got != "GB" {
		t.Errorf("ValidatePhoneRegion(gb) = (%q, %v), want GB", got, err)
	}
	for _, region := range []string{"", "ZZ", "USA"} {
		if _, err := services.ValidatePhoneRegion(region); err == nil {
			t.Errorf("expected error for region %q", region)
		}
	}
}
