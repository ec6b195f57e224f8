package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/gorm"
)

// Handler handles user management requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UserWithStats represents a user with aggregated usage in responses
type UserWithStats struct {
	ID                   string    `json:"id"`
	CompanyName          *string   `json:"company_name"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	APIKeysCount         int64     `json:"api_keys_count"`
	TotalRequests        int64     `json:"total_requests"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	CompanyName *string `json:"company_name"`
}

// UpdateStatusRequest represents a request to toggle active status
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// statsQuery joins users through their live API keys to the usage
// ledger. Soft-deleted users are excluded by GORM's soft-delete scope;
// soft-deleted keys are excluded in the join condition, but their
// tasks are counted via whatever live keys remain.
func (h *Handler) statsQuery() *gorm.DB {
	return h.db.Model(&models.User{}).
		Select(`users.id,
			users.company_name,
			users.is_active,
			users.created_at,
			users.updated_at,
			COUNT(DISTINCT api_keys.id) AS api_keys_count,
			COUNT(transcription_tasks.id) AS total_requests,
			COALESCE(SUM(transcription_tasks.duration_seconds), 0) AS total_duration_seconds`).
		Joins("LEFT JOIN api_keys ON api_keys.user_id = users.id AND api_keys.deleted_at IS NULL").
		Joins("LEFT JOIN transcription_tasks ON transcription_tasks.api_key_id = api_keys.id AND transcription_tasks.deleted_at IS NULL").
		Group("users.id, users.company_name, users.is_active, users.created_at, users.updated_at")
}

// List returns all users with per-user key counts and usage totals
// @Summary List users
// @Description List all users with API key counts and usage totals, newest first
// @Tags users
// @Produce json
// @Success 200 {array} UserWithStats
// @Router /users [get]
func (h *Handler) List(c *gin.Context) {
	var rows []UserWithStats
	if err := h.statsQuery().Order("users.created_at DESC").Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users: " + err.Error()})
		return
	}
	if rows == nil {
		rows = []UserWithStats{}
	}

	c.JSON(http.StatusOK, rows)
}

// Get returns a single user with usage totals
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")

	var row UserWithStats
	result := h.statsQuery().Where("users.id = ?", id).Scan(&row)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, row)
}

// Create creates a new user
// @Summary Create user
// @Description Create a new customer account, active by default
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User details"
// @Success 201 {object} models.User
// @Router /users [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Company name is optional, so an empty body is fine
		req.CompanyName = nil
	}

	user := models.User{
		CompanyName: req.CompanyName,
		IsActive:    true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateStatus activates or deactivates a user
func (h *Handler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user: " + err.Error()})
		return
	}

	if err := h.db.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user status: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete soft-deletes a user. Historical usage stays in the ledger.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user: " + err.Error()})
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// RegisterRoutes registers user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.List)
	rg.POST("/users", h.Create)
	rg.GET("/users/:id", h.Get)
	rg.PATCH("/users/:id/status", h.UpdateStatus)
	rg.DELETE("/users/:id", h.Delete)
}
