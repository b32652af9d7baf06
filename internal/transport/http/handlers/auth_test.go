package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
	"github.com/agrismart/agrismart-iam/internal/repository"
	"github.com/agrismart/agrismart-iam/internal/repository/memory"
	"github.com/agrismart/agrismart-iam/internal/usecase"
)

type handlerUserRepo struct {
	users map[string]domain.User
}

func (m *handlerUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *handlerUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *handlerUserRepo) GetByFacebookID(_ context.Context, facebookID string) (*domain.User, error) {
	for _, user := range m.users {
		if user.FacebookID != nil && *user.FacebookID == facebookID {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *handlerUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *handlerUserRepo) Save(_ context.Context, user domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *handlerUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *handlerUserRepo) ReassignRole(_ context.Context, _, _ string) (int64, error) {
	return 0, nil
}

type handlerRoleRepo struct {
	roles map[string]domain.Role
}

func (m *handlerRoleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	if role, ok := m.roles[id]; ok {
		return &role, nil
	}
	return nil, repository.ErrNotFound
}

func (m *handlerRoleRepo) GetByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range m.roles {
		if strings.EqualFold(role.Name, name) {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *handlerRoleRepo) Save(_ context.Context, role domain.Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *handlerRoleRepo) Delete(_ context.Context, id string) error {
	delete(m.roles, id)
	return nil
}

func (m *handlerRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

type handlerMailer struct {
	bodies []string
}

func (m *handlerMailer) Send(_ context.Context, _, _, body string) error {
	m.bodies = append(m.bodies, body)
	return nil
}

func newAuthAPIFixture(t *testing.T) (*gin.Engine, *handlerUserRepo, *handlerMailer) {
	t.Helper()

	users := &handlerUserRepo{users: make(map[string]domain.User)}
	roles := &handlerRoleRepo{roles: map[string]domain.Role{
		"role-viewer":     {ID: "role-viewer", Name: domain.RoleViewer},
		"role-producteur": {ID: "role-producteur", Name: domain.RoleProducteur},
	}}
	mailer := &handlerMailer{}
	store := memory.NewVerificationStore(10 * time.Minute)

	tokens, err := security.NewTokenService("test-secret-0123456789", "agrismart-iam", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	auth := usecase.NewAuthService(users, roles, tokens, nil, nil, nil, nil)
	signup := usecase.NewSignupService(auth, users, store, mailer, nil)
	reset := usecase.NewPasswordResetService(users, store, mailer, nil, nil)

	r := gin.New()
	NewAuthHandler(auth, signup, reset).RegisterRoutes(r.Group("/api/auth"), nil, nil)
	return r, users, mailer
}

func postJSON(r *gin.Engine, path, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAPI_RegisterThenLogin(t *testing.T) {
	r, _, _ := newAuthAPIFixture(t)

	w := postJSON(r, "/api/auth/register", `{
		"email": "New@Example.com",
		"password": "password123",
		"firstName": "New",
		"lastName": "User",
		"role": "producteur"
	}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201; body %s", w.Code, w.Body.String())
	}

	var created AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.Token == "" {
		t.Error("register returned no token")
	}
	if created.User.Email != "new@example.com" {
		t.Errorf("register email = %q, want normalized", created.User.Email)
	}
	if created.User.Role != domain.RoleProducteur {
		t.Errorf("register role = %q, want PRODUCTEUR", created.User.Role)
	}

	w = postJSON(r, "/api/auth/login", `{"email": "new@example.com", "password": "password123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/auth/login", `{"email": "new@example.com", "password": "wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"INVALID_PASSWORD"`) {
		t.Errorf("bad login body %q missing INVALID_PASSWORD", w.Body.String())
	}
}

func TestAuthAPI_TwoPhaseSignup(t *testing.T) {
	r, users, mailer := newAuthAPIFixture(t)

	w := postJSON(r, "/api/auth/signup/request-code", `{
		"email": "new@example.com",
		"password": "password123",
		"firstName": "New"
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("request-code status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if len(users.users) != 0 {
		t.Fatal("account created before verification")
	}
	if len(mailer.bodies) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.bodies))
	}

	code := codeFromBody(t, mailer.bodies[0])

	w = postJSON(r, "/api/auth/signup/verify-code", fmt.Sprintf(`{"email": "new@example.com", "code": %q}`, code))
	if w.Code != http.StatusCreated {
		t.Fatalf("verify-code status = %d, want 201; body %s", w.Code, w.Body.String())
	}
	if len(users.users) != 1 {
		t.Fatal("account not created after verification")
	}

	// The consumed code no longer works.
	w = postJSON(r, "/api/auth/signup/verify-code", fmt.Sprintf(`{"email": "new@example.com", "code": %q}`, code))
	if w.Code != http.StatusNotFound {
		t.Fatalf("replayed code status = %d, want 404", w.Code)
	}
}

func TestAuthAPI_PasswordReset(t *testing.T) {
	r, _, mailer := newAuthAPIFixture(t)

	w := postJSON(r, "/api/auth/register", `{"email": "user@example.com", "password": "old-password"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d; body %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/auth/password-reset/request-code", `{"email": "user@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("request-code status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	code := codeFromBody(t, mailer.bodies[len(mailer.bodies)-1])
	w = postJSON(r, "/api/auth/password-reset/confirm", fmt.Sprintf(
		`{"email": "user@example.com", "code": %q, "newPassword": "new-password"}`, code))
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/auth/login", `{"email": "user@example.com", "password": "new-password"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d, want 200", w.Code)
	}
	w = postJSON(r, "/api/auth/login", `{"email": "user@example.com", "password": "old-password"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login with old password status = %d, want 401", w.Code)
	}

	// Unknown email does not get a code.
	w = postJSON(r, "/api/auth/password-reset/request-code", `{"email": "nobody@example.com"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown email status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"USER_NOT_FOUND"`) {
		t.Errorf("body %q missing USER_NOT_FOUND", w.Body.String())
	}
}

type fbVerifierStub struct {
	profile domain.ExternalProfile
}

func (v fbVerifierStub) Verify(context.Context, string) (domain.ExternalProfile, error) {
	return v.profile, nil
}

func TestAuthAPI_FacebookModeSwitch(t *testing.T) {
	users := &handlerUserRepo{users: make(map[string]domain.User)}
	roles := &handlerRoleRepo{roles: map[string]domain.Role{
		"role-viewer": {ID: "role-viewer", Name: domain.RoleViewer},
	}}
	tokens, err := security.NewTokenService("test-secret-0123456789", "agrismart-iam", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	facebook := fbVerifierStub{profile: domain.ExternalProfile{
		ProviderUserID: "fb-123",
		Email:          "fb@example.com",
		FirstName:      "Jane",
	}}
	auth := usecase.NewAuthService(users, roles, tokens, nil, facebook, nil, nil)

	r := gin.New()
	NewAuthHandler(auth, nil, nil).RegisterRoutes(r.Group("/api/auth"), nil, nil)

	// A login before any account exists must not create one.
	w := postJSON(r, "/api/auth/facebook", `{"accessToken": "tok", "mode": "login"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("login status = %d, want 404; body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"FACEBOOK_NO_ACCOUNT"`) {
		t.Errorf("body %q missing FACEBOOK_NO_ACCOUNT", w.Body.String())
	}
	if len(users.users) != 0 {
		t.Fatal("login created an account")
	}

	w = postJSON(r, "/api/auth/facebook", `{"accessToken": "tok", "mode": "signup"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if len(users.users) != 1 {
		t.Fatal("signup did not create an account")
	}

	w = postJSON(r, "/api/auth/facebook", `{"accessToken": "tok", "mode": "signup"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat signup status = %d, want 409; body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"FACEBOOK_ACCOUNT_EXISTS"`) {
		t.Errorf("body %q missing FACEBOOK_ACCOUNT_EXISTS", w.Body.String())
	}

	// Omitting the mode behaves as login now that the account exists.
	w = postJSON(r, "/api/auth/facebook", `{"accessToken": "tok"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("default-mode login status = %d, want 200; body %s", w.Code, w.Body.String())
	}
}

func TestAuthAPI_InvalidPayload(t *testing.T) {
	r, _, _ := newAuthAPIFixture(t)

	w := postJSON(r, "/api/auth/login", `{"email": "user@example.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"INVALID_PAYLOAD"`) {
		t.Errorf("body %q missing INVALID_PAYLOAD", w.Body.String())
	}
}

// codeFromBody extracts the numeric code from a templated mail body.
func codeFromBody(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, ": ")
	if start < 0 {
		t.Fatalf("no code in mail body %q", body)
	}
	rest := body[start+2:]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		t.Fatalf("no code terminator in mail body %q", body)
	}
	return rest[:end]
}
