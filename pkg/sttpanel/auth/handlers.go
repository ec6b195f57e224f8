package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/synstt/sttpanel/pkg/sttpanel/config"
	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/gorm"
)

// Handler handles authentication requests
type Handler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB, cfg *config.Config) *Handler {
	return &Handler{db: db, cfg: cfg}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminResponse represents admin data in responses
type AdminResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Login handles admin login
// @Summary Login
// @Description Authenticate with email and password; sets the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AdminResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Unknown email and wrong password must be indistinguishable
	var admin models.Admin
	if err := h.db.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !CheckPassword(req.Password, admin.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := GenerateToken([]byte(h.cfg.JWTSecret), admin.ID, admin.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	setSessionCookie(c, h.cfg, token)

	c.JSON(http.StatusOK, AdminResponse{
		ID:    admin.ID,
		Email: admin.Email,
	})
}

// Logout clears the session cookie
// @Summary Logout
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out successfully"
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the current authenticated admin
// @Summary Get current admin
// @Description Get the authenticated admin's profile
// @Tags auth
// @Produce json
// @Success 200 {object} AdminResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	adminID, exists := GetAdminID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var admin models.Admin
	if err := h.db.First(&admin, "id = ?", adminID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
		return
	}

	c.JSON(http.StatusOK, AdminResponse{
		ID:    admin.ID,
		Email: admin.Email,
	})
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", RequireSession(h.cfg), h.Me)
}
