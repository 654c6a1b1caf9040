package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/app"
	iauth "github.com/mailforge/mailforge/internal/auth"
	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/pkg/crypto"
)

type routerFixture struct {
	t   *testing.T
	db  *gorm.DB
	r   *gin.Engine
	jwt *iauth.JWTService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Organization{},
		&models.OrganizationSetting{},
		&models.User{},
		&models.UserInvite{},
		&models.AuditLog{},
		&models.Contact{},
		&models.Campaign{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "router-test-secret",
		Issuer:         "mailforge",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Server.Env = "test"
	cfg.Auth.BcryptCost = 4
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.MaxRequests = 10000

	router, err := NewRouter(db, jwtSvc, cfg, nil)
	require.NoError(t, err)

	return &routerFixture{t: t, db: db, r: router, jwt: jwtSvc}
}

func (f *routerFixture) createOrg(name string) *models.Organization {
	f.t.Helper()

	org := &models.Organization{Name: name, Plan: models.PlanFree, ContactLimit: 1000, EmailLimit: 10000}
	require.NoError(f.t, f.db.Create(org).Error)
	return org
}

func (f *routerFixture) createUser(orgID, email, role string) *models.User {
	f.t.Helper()

	hash, err := crypto.HashPassword("Password123!", 4)
	require.NoError(f.t, err)

	user := &models.User{
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Status:         models.UserStatusActive,
	}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *routerFixture) token(user *models.User) string {
	f.t.Helper()

	token, err := f.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
	})
	require.NoError(f.t, err)
	return token
}

func (f *routerFixture) request(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		if raw, ok := body.([]byte); ok {
			reader = bytes.NewReader(raw)
		} else {
			encoded, err := json.Marshal(body)
			require.NoError(f.t, err)
			reader = bytes.NewReader(encoded)
		}
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	w := f.request(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, "ok", payload["status"])
	require.Equal(t, "test", payload["environment"])
	require.NotEmpty(t, payload["timestamp"])
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	f := newRouterFixture(t)

	w := f.request(http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"Route not found"}`, w.Body.String())
}

func TestLoginFlow(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	f.createUser(org.ID, "admin@example.com", models.RoleAdmin)

	w := f.request(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "Password123!",
	})
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.NotEmpty(t, payload["token"])

	// Wrong password is indistinguishable from unknown user.
	w = f.request(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"Invalid email or password"}`, w.Body.String())

	// The issued token works against a protected endpoint.
	token := payload["token"].(string)
	w = f.request(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "admin@example.com")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/api/organizations", "/api/users", "/api/contacts", "/api/dashboard"} {
		w := f.request(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestTenantIsolationOnOrganizations(t *testing.T) {
	f := newRouterFixture(t)

	orgA := f.createOrg("Org A")
	orgB := f.createOrg("Org B")
	userA := f.createUser(orgA.ID, "a@example.com", models.RoleAdmin)
	f.createUser(orgB.ID, "b@example.com", models.RoleAdmin)

	w := f.request(http.MethodGet, "/api/organizations", f.token(userA), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), orgA.ID)
	require.NotContains(t, w.Body.String(), orgB.ID)
}

func TestPermissionGates(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	member := f.createUser(org.ID, "member@example.com", models.RoleUser)
	manager := f.createUser(org.ID, "manager@example.com", models.RoleManager)

	// Plain users cannot manage users or see audit logs.
	w := f.request(http.MethodGet, "/api/users", f.token(member), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":"Permission denied"}`, w.Body.String())

	w = f.request(http.MethodGet, "/api/organizations/audit-logs", f.token(manager), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Managers may view analytics.
	w = f.request(http.MethodGet, "/api/dashboard", f.token(manager), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Members may view contacts but not create them.
	w = f.request(http.MethodGet, "/api/contacts", f.token(member), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.request(http.MethodPost, "/api/contacts", f.token(member), gin.H{"email": "c@example.com"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestInvitationLifecycle(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)
	token := f.token(admin)

	// Issue an invitation.
	w := f.request(http.MethodPost, "/api/users/invite", token, gin.H{
		"email": "newhire@example.com",
		"role":  "manager",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	payload := decodeBody(t, w)
	inviteToken, _ := payload["invitationToken"].(string)
	require.NotEmpty(t, inviteToken)

	// A duplicate pending invitation is rejected and no second row exists.
	w = f.request(http.MethodPost, "/api/users/invite", token, gin.H{
		"email": "newhire@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var inviteCount int64
	require.NoError(t, f.db.Model(&models.UserInvite{}).
		Where("email = ?", "newhire@example.com").
		Count(&inviteCount).Error)
	require.EqualValues(t, 1, inviteCount)

	// Inviting an existing user fails.
	w = f.request(http.MethodPost, "/api/users/invite", token, gin.H{
		"email": "admin@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"User with this email already exists"}`, w.Body.String())

	// Acceptance is public and creates the account with the invited role.
	w = f.request(http.MethodPost, "/api/users/accept-invitation", "", gin.H{
		"token":      inviteToken,
		"password":   "NewPassword123!",
		"first_name": "New",
		"last_name":  "Hire",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.User
	require.NoError(t, f.db.First(&created, "email = ?", "newhire@example.com").Error)
	require.Equal(t, org.ID, created.OrganizationID)
	require.Equal(t, models.RoleManager, created.Role)

	// The token is single use.
	w = f.request(http.MethodPost, "/api/users/accept-invitation", "", gin.H{
		"token":      inviteToken,
		"password":   "AnotherPassword123!",
		"first_name": "Second",
		"last_name":  "Try",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Invalid or expired invitation"}`, w.Body.String())

	// The new account can log in.
	w = f.request(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "newhire@example.com",
		"password": "NewPassword123!",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSelfDeactivationRejected(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)

	w := f.request(http.MethodPut, "/api/users/"+admin.ID+"/deactivate", f.token(admin), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Cannot deactivate your own account"}`, w.Body.String())

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", admin.ID).Error)
	require.Equal(t, models.UserStatusActive, reloaded.Status)
}

func TestRoleUpdateCrossTenantIsNotFound(t *testing.T) {
	f := newRouterFixture(t)

	orgA := f.createOrg("Org A")
	orgB := f.createOrg("Org B")
	admin := f.createUser(orgA.ID, "admin@example.com", models.RoleAdmin)
	outsider := f.createUser(orgB.ID, "outsider@example.com", models.RoleUser)

	w := f.request(http.MethodPut, "/api/users/"+outsider.ID+"/role", f.token(admin), gin.H{"role": "manager"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsagePercentages(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	require.NoError(t, f.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).
		Updates(map[string]any{"contact_limit": 100, "email_limit": 0}).Error)
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)

	for i := 0; i < 25; i++ {
		require.NoError(t, f.db.Create(&models.Contact{
			OrganizationID: org.ID,
			Email:          fmt.Sprintf("c%02d@example.com", i),
		}).Error)
	}

	w := f.request(http.MethodGet, "/api/organizations/usage", f.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	percentages, ok := payload["usage_percentages"].(map[string]any)
	require.True(t, ok)
	require.InDelta(t, 25.0, percentages["contacts"].(float64), 0.001)
	// A zero limit never divides.
	require.Zero(t, percentages["emails"].(float64))
}

func TestAuditLogPagination(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		require.NoError(t, f.db.Create(&models.AuditLog{
			OrganizationID: org.ID,
			Action:         "contact.created",
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	w := f.request(http.MethodGet, "/api/organizations/audit-logs?page=1&limit=50", f.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	logs := payload["logs"].([]any)
	require.Len(t, logs, 50)

	pagination := payload["pagination"].(map[string]any)
	require.EqualValues(t, 1, pagination["page"])
	require.EqualValues(t, 50, pagination["limit"])
	require.EqualValues(t, 120, pagination["total"])
	require.EqualValues(t, 3, pagination["pages"])
}

func TestMalformedJSONRejected(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)

	w := f.request(http.MethodPost, "/api/users/invite", f.token(admin), []byte(`{"email": `))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Invalid JSON in request body"}`, w.Body.String())

	// The handler never ran: nothing was written.
	var count int64
	require.NoError(t, f.db.Model(&models.UserInvite{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestContactLimitEnforced(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Capped")
	require.NoError(t, f.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).
		Update("contact_limit", 1).Error)
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)
	token := f.token(admin)

	w := f.request(http.MethodPost, "/api/contacts", token, gin.H{"email": "one@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(http.MethodPost, "/api/contacts", token, gin.H{"email": "two@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Contact limit reached for your plan"}`, w.Body.String())
}

func TestOrganizationSettingsRoundTrip(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)
	token := f.token(admin)

	w := f.request(http.MethodPut, "/api/organizations/settings", token, gin.H{
		"settings": gin.H{"sender_name": "Acme Weekly"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(http.MethodGet, "/api/organizations/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Acme Weekly")
}

func TestMutationsAreAudited(t *testing.T) {
	f := newRouterFixture(t)

	org := f.createOrg("Acme")
	admin := f.createUser(org.ID, "admin@example.com", models.RoleAdmin)
	token := f.token(admin)

	w := f.request(http.MethodPut, "/api/organizations", token, gin.H{"name": "Renamed", "plan": "pro"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"Organization updated successfully"}`, w.Body.String())

	var log models.AuditLog
	require.NoError(t, f.db.First(&log, "action = ?", "organization.updated").Error)
	require.Equal(t, org.ID, log.OrganizationID)
	require.NotNil(t, log.UserID)
	require.Equal(t, admin.ID, *log.UserID)
}
