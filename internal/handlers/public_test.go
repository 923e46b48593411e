package handlers_test

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/abrezinsky/prizewheel/internal/handlers"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/services"
)

// createActiveProject creates a project through the API and activates it
func (ts *testSetup) createActiveProject(t *testing.T, token string, rules map[string]interface{}) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/projects", map[string]interface{}{
		"name": "Grand Opening", "rules": rules,
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var project models.Project
	decode(t, rec, &project)

	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/api/admin/projects/%d/status", project.ID), map[string]string{"status": "active"}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate project: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	return project.ID
}

// createPrize creates a prize through the API
func (ts *testSetup) createPrize(t *testing.T, token string, body map[string]interface{}) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/prizes", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create prize: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var prize models.Prize
	decode(t, rec, &prize)
	return prize.ID
}

func TestWheelFlow_SpinLimitAndRedemption(t *testing.T) {
	setup := newTestSetup(t)
	token, tenantID := setup.signup(t, "Corner Cafe", "cafe@example.com")
	projectID := setup.createActiveProject(t, token, map[string]interface{}{
		"enable_spin_limit": true, "spins_per_user_per_day": 1,
	})
	setup.createPrize(t, token, map[string]interface{}{
		"project_id": projectID, "name": "Free Coffee", "type": "food_item", "quantity": 5,
	})
	base := fmt.Sprintf("/api/wheel/%d/projects/%d", tenantID, projectID)

	// wheel snapshot
	rec := setup.do(t, http.MethodGet, base, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("wheel: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var wheel services.Wheel
	decode(t, rec, &wheel)
	if len(wheel.Segments) != 1 || !wheel.Rules.RequireContact {
		t.Errorf("unexpected wheel: %+v", wheel)
	}

	// eligible before spinning
	rec = setup.do(t, http.MethodPost, base+"/eligibility", map[string]string{"contact": "visitor@example.com"}, "")
	var elig handlers.EligibilityResponse
	decode(t, rec, &elig)
	if !elig.Allowed || elig.Remaining != 1 {
		t.Errorf("expected eligible with 1 remaining, got %+v", elig)
	}

	// spin without contact is rejected
	rec = setup.do(t, http.MethodPost, base+"/spin", nil, "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != handlers.ErrCodeValidation {
		t.Errorf("expected 400 VALIDATION_ERROR without contact, got %d: %s", rec.Code, rec.Body.String())
	}

	// first spin wins
	rec = setup.do(t, http.MethodPost, base+"/spin", map[string]string{"contact": "visitor@example.com"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("spin: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var spin handlers.SpinResponse
	decode(t, rec, &spin)
	if spin.Prize.Name != "Free Coffee" || spin.Token == "" || spin.RedeemURL != "/api/redeem/"+spin.Token {
		t.Errorf("unexpected spin response: %+v", spin)
	}

	// second spin within the window is rate limited
	rec = setup.do(t, http.MethodPost, base+"/spin", map[string]string{"contact": "VISITOR@example.com"}, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry <= 0 {
		t.Errorf("expected positive Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
	var limited handlers.APIError
	decode(t, rec, &limited)
	if limited.Code != handlers.ErrCodeRateLimited || limited.RetryAfterSeconds != int64(retry) {
		t.Errorf("unexpected rate limit body: %+v", limited)
	}

	rec = setup.do(t, http.MethodPost, base+"/eligibility", map[string]string{"contact": "visitor@example.com"}, "")
	decode(t, rec, &elig)
	if elig.Allowed || elig.RetryAfterSeconds <= 0 {
		t.Errorf("expected ineligible with retry, got %+v", elig)
	}

	// redemption
	rec = setup.do(t, http.MethodGet, "/api/redeem/"+spin.Token, nil, "")
	var redemption services.Redemption
	decode(t, rec, &redemption)
	if rec.Code != http.StatusOK || redemption.IsRedeemed || redemption.TenantName != "Corner Cafe" {
		t.Errorf("unexpected redemption: %d %+v", rec.Code, redemption)
	}

	rec = setup.do(t, http.MethodPost, "/api/redeem/"+spin.Token, map[string]string{"contact": "+1 555 010 9999"}, "")
	decode(t, rec, &redemption)
	if rec.Code != http.StatusOK || !redemption.IsRedeemed {
		t.Errorf("expected claim to succeed, got %d %+v", rec.Code, redemption)
	}

	rec = setup.do(t, http.MethodPost, "/api/redeem/"+spin.Token, map[string]string{"contact": "visitor@example.com"}, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on second claim, got %d", rec.Code)
	}
}

func TestSpin_ExhaustedPool(t *testing.T) {
	setup := newTestSetup(t)
	token, tenantID := setup.signup(t, "Cafe", "cafe@example.com")
	setup.createPrize(t, token, map[string]interface{}{
		"name": "Last Muffin", "type": "food_item", "quantity": 1,
	})
	path := fmt.Sprintf("/api/wheel/%d/spin", tenantID)

	if rec := setup.do(t, http.MethodPost, path, nil, ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected first spin to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := setup.do(t, http.MethodPost, path, nil, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 once the pool is empty, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWheel_Errors(t *testing.T) {
	setup := newTestSetup(t)
	token, tenantID := setup.signup(t, "Cafe", "cafe@example.com")

	rec := setup.do(t, http.MethodPost, "/api/admin/projects", map[string]interface{}{"name": "Draft"}, token)
	var draft models.Project
	decode(t, rec, &draft)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"bad tenant id", http.MethodGet, "/api/wheel/abc", nil, http.StatusBadRequest},
		{"unknown tenant", http.MethodGet, "/api/wheel/999", nil, http.StatusNotFound},
		{"unknown project", http.MethodGet, fmt.Sprintf("/api/wheel/%d/projects/999", tenantID), nil, http.StatusNotFound},
		{"draft project", http.MethodPost, fmt.Sprintf("/api/wheel/%d/projects/%d/spin", tenantID, draft.ID), nil, http.StatusConflict},
		{"invalid contact", http.MethodPost, fmt.Sprintf("/api/wheel/%d/spin", tenantID), map[string]string{"contact": "not a contact"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, fmt.Sprintf("/api/wheel/%d/spin", tenantID), "{", http.StatusBadRequest},
		{"unknown token", http.MethodGet, "/api/redeem/00000000-0000-4000-8000-000000000000", nil, http.StatusNotFound},
		{"malformed token", http.MethodGet, "/api/redeem/nope", nil, http.StatusNotFound},
		{"claim without body", http.MethodPost, "/api/redeem/nope", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := setup.do(t, tt.method, tt.path, tt.body, "")
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTenantWheel_NoContactNeeded(t *testing.T) {
	setup := newTestSetup(t)
	token, tenantID := setup.signup(t, "Cafe", "cafe@example.com")
	setup.createPrize(t, token, map[string]interface{}{
		"name": "10% Off", "type": "discount", "value": 10, "is_unlimited": true,
	})

	rec := setup.do(t, http.MethodPost, fmt.Sprintf("/api/wheel/%d/eligibility", tenantID), nil, "")
	var elig handlers.EligibilityResponse
	decode(t, rec, &elig)
	if !elig.Allowed || elig.Limited || elig.Remaining != -1 {
		t.Errorf("expected unlimited eligibility, got %+v", elig)
	}

	for i := 0; i < 3; i++ {
		if rec := setup.do(t, http.MethodPost, fmt.Sprintf("/api/wheel/%d/spin", tenantID), nil, ""); rec.Code != http.StatusCreated {
			t.Fatalf("spin %d: expected 201, got %d", i, rec.Code)
		}
	}
}
