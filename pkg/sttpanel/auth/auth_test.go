package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/synstt/sttpanel/pkg/sttpanel/config"
	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		CookieName:   "sttpanel_session",
		CookieSecure: false,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, cfg)
	handler.RegisterRoutes(r.Group("/api/auth"))
	return r
}

func createTestAdmin(t *testing.T, db *gorm.DB, email, password string) models.Admin {
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	admin := models.Admin{Email: email, PasswordHash: hash}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}
	return admin
}

func TestPasswordHashing(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password {
		t.Error("Hash should not equal plain password")
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Expected argon2id encoded hash, got %s", hash)
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword should return true for correct password")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Error("CheckPassword should return false for incorrect password")
	}

	// Every single-character mutation must fail
	for i := 0; i < len(password); i++ {
		mutated := []byte(password)
		mutated[i] ^= 0x01
		if CheckPassword(string(mutated), hash) {
			t.Errorf("CheckPassword should fail for mutated password %q", mutated)
		}
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("whatever", "not-an-encoded-hash") {
		t.Error("CheckPassword should return false for malformed hash")
	}
	if CheckPassword("whatever", "$argon2id$v=19$m=bad$salt$hash") {
		t.Error("CheckPassword should return false for bad parameters")
	}
}

func TestSessionToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "admin-uuid-1", "admin@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.AdminID != "admin-uuid-1" {
		t.Errorf("Expected admin ID admin-uuid-1, got %s", claims.AdminID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("Expected email admin@example.com, got %s", claims.Email)
	}
}

func TestExpiredToken(t *testing.T) {
	secret := []byte("test-secret")

	claims := &Claims{
		AdminID: "admin-uuid-1",
		Email:   "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-SessionDuration)),
			Issuer:    "sttpanel",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := ValidateToken(secret, token); err != ErrExpiredToken {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestInvalidToken(t *testing.T) {
	secret := []byte("test-secret")

	if _, err := ValidateToken(secret, "invalid-token"); err == nil {
		t.Error("Expected error for invalid token")
	}

	// Token signed with a different secret must be rejected
	token, _ := GenerateToken([]byte("other-secret"), "admin-uuid-1", "admin@example.com")
	if _, err := ValidateToken(secret, token); err == nil {
		t.Error("Expected error for token signed with wrong secret")
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	router := setupTestRouter(db, cfg)
	createTestAdmin(t, db, "admin@example.com", "password123")

	body, _ := json.Marshal(LoginRequest{Email: "admin@example.com", Password: "password123"})
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response AdminResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Email != "admin@example.com" {
		t.Errorf("Expected email admin@example.com, got %s", response.Email)
	}

	cookies := resp.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == cfg.CookieName && cookie.Value != "" {
			found = true
			if !cookie.HttpOnly {
				t.Error("Expected session cookie to be HTTP-only")
			}
			if cookie.SameSite != http.SameSiteLaxMode {
				t.Error("Expected session cookie to be SameSite=Lax")
			}
		}
	}
	if !found {
		t.Error("Expected session cookie to be set on login")
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, testConfig())
	createTestAdmin(t, db, "admin@example.com", "password123")

	responses := make([]string, 0, 2)
	for _, creds := range []LoginRequest{
		{Email: "admin@example.com", Password: "wrongpassword"},
		{Email: "nobody@example.com", Password: "password123"},
	} {
		body, _ := json.Marshal(creds)
		req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", resp.Code)
		}
		responses = append(responses, resp.Body.String())
	}

	if responses[0] != responses[1] {
		t.Errorf("Wrong-password and unknown-email responses must match: %q vs %q", responses[0], responses[1])
	}
}

func TestLoginSoftDeletedAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, testConfig())
	admin := createTestAdmin(t, db, "admin@example.com", "password123")
	db.Delete(&admin)

	body, _ := json.Marshal(LoginRequest{Email: "admin@example.com", Password: "password123"})
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for soft-deleted admin, got %d", resp.Code)
	}
}

func TestRequireSession(t *testing.T) {
	cfg := testConfig()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/users", RequireSession(cfg), func(c *gin.Context) {
		adminID, _ := GetAdminID(c)
		c.JSON(http.StatusOK, gin.H{"admin_id": adminID})
	})
	r.GET("/users", RequireSession(cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// No cookie on an API route: 401
	req, _ := http.NewRequest("GET", "/api/users", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without cookie, got %d", resp.Code)
	}

	// No cookie on a page route: redirect to login
	req, _ = http.NewRequest("GET", "/users", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusFound {
		t.Errorf("Expected redirect without cookie, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/login" {
		t.Errorf("Expected redirect to /login, got %s", loc)
	}

	// Garbage cookie: treated as no session, cookie cleared
	req, _ = http.NewRequest("GET", "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "garbage"})
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with garbage cookie, got %d", resp.Code)
	}

	// Valid cookie passes and exposes the admin identity
	token, _ := GenerateToken([]byte(cfg.JWTSecret), "admin-uuid-1", "admin@example.com")
	req, _ = http.NewRequest("GET", "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 with valid cookie, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "admin-uuid-1") {
		t.Errorf("Expected admin identity in response, got %s", resp.Body.String())
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	router := setupTestRouter(db, cfg)

	req, _ := http.NewRequest("POST", "/api/auth/logout", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var cleared bool
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == cfg.CookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected logout to clear the session cookie")
	}
}

func TestEnsureDefaultAdmin(t *testing.T) {
	db := setupTestDB(t)

	if err := EnsureDefaultAdmin(db, "root@example.com", "bootstrap-pass"); err != nil {
		t.Fatalf("EnsureDefaultAdmin failed: %v", err)
	}

	var admin models.Admin
	if err := db.Where("email = ?", "root@example.com").First(&admin).Error; err != nil {
		t.Fatalf("Expected bootstrap admin to exist: %v", err)
	}
	if !CheckPassword("bootstrap-pass", admin.PasswordHash) {
		t.Error("Bootstrap admin password should verify")
	}

	// Second run with different credentials must not overwrite
	if err := EnsureDefaultAdmin(db, "root@example.com", "other-pass"); err != nil {
		t.Fatalf("EnsureDefaultAdmin second run failed: %v", err)
	}

	var count int64
	db.Model(&models.Admin{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 admin, got %d", count)
	}

	db.Where("email = ?", "root@example.com").First(&admin)
	if !CheckPassword("bootstrap-pass", admin.PasswordHash) {
		t.Error("Existing admin must keep the original password")
	}
}

func TestEnsureDefaultAdminUnconfigured(t *testing.T) {
	db := setupTestDB(t)

	if err := EnsureDefaultAdmin(db, "", ""); err != nil {
		t.Fatalf("EnsureDefaultAdmin with empty config failed: %v", err)
	}

	var count int64
	db.Model(&models.Admin{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no admins when bootstrap is unconfigured, got %d", count)
	}
}
