package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/abrezinsky/prizewheel/internal/handlers"
)

func TestSignup_IssuesToken(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Corner Cafe", "email": "Cafe@Example.com", "password": testPassword,
	}, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.TokenResponse
	decode(t, rec, &resp)
	if resp.Token == "" || resp.ExpiresAt.IsZero() {
		t.Errorf("expected token with expiry, got %+v", resp)
	}
	if resp.Tenant.Email != "cafe@example.com" || resp.Tenant.IsOwner {
		t.Errorf("unexpected tenant: %+v", resp.Tenant)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not include the password hash")
	}

	session, err := setup.auth.Parse(resp.Token)
	if err != nil || session.TenantID != resp.Tenant.ID {
		t.Errorf("token does not identify the tenant: %+v, %v", session, err)
	}
}

func TestSignup_Validation(t *testing.T) {
	setup := newTestSetup(t)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing name", map[string]string{"email": "a@b.com", "password": testPassword}, "name is required"},
		{"bad email", map[string]string{"name": "X", "email": "nope", "password": testPassword}, "email must be a valid email address"},
		{"short password", map[string]string{"name": "X", "email": "a@b.com", "password": "short"}, "password must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := setup.do(t, http.MethodPost, "/api/auth/signup", tt.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body handlers.APIError
			decode(t, rec, &body)
			if body.Code != handlers.ErrCodeValidation || !strings.Contains(body.Message, tt.want) {
				t.Errorf("expected %q in validation error, got %+v", tt.want, body)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	setup := newTestSetup(t)
	setup.signup(t, "Cafe", "cafe@example.com")

	rec := setup.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Copycat", "email": "cafe@example.com", "password": testPassword,
	}, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	setup := newTestSetup(t)
	_, tenantID := setup.signup(t, "Cafe", "cafe@example.com")

	rec := setup.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "cafe@example.com", "password": testPassword,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.TokenResponse
	decode(t, rec, &resp)
	if resp.Tenant.ID != tenantID {
		t.Errorf("expected tenant %d, got %d", tenantID, resp.Tenant.ID)
	}

	rec = setup.do(t, http.MethodGet, "/api/admin/tenant", nil, resp.Token)
	if rec.Code != http.StatusOK {
		t.Errorf("expected token to authorize admin routes, got %d", rec.Code)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	setup := newTestSetup(t)
	setup.signup(t, "Cafe", "cafe@example.com")

	tests := []struct {
		name  string
		email string
	}{
		{"wrong password", "cafe@example.com"},
		{"unknown email", "ghost@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := setup.do(t, http.MethodPost, "/api/auth/login", map[string]string{
				"email": tt.email, "password": "wrong-password",
			}, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}

	rec := setup.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "cafe@example.com"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without password, got %d", rec.Code)
	}
}
