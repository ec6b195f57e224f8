package apikeys

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/synstt/sttpanel/pkg/sttpanel/analytics"
	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/gorm"
)

// Handler handles API key requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new API keys handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// APIKeyWithStats represents an API key with its usage in responses
type APIKeyWithStats struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	KeyPrefix     string     `json:"key_prefix"`
	Name          *string    `json:"name"`
	IsActive      bool       `json:"is_active"`
	LastUsedAt    *time.Time `json:"last_used_at"`
	CreatedAt     time.Time  `json:"created_at"`
	RequestCount  int64      `json:"request_count"`
	TotalDuration float64    `json:"total_duration"`
}

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Name *string `json:"name"`
}

// CreateAPIKeyResponse includes the full key (only shown once)
type CreateAPIKeyResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateStatusRequest represents a request to toggle active status
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// Create creates a new API key for a user
// @Summary Create API key
// @Description Generate a new key; the plaintext is returned exactly once
// @Tags api-keys
// @Accept json
// @Produce json
// @Param request body CreateAPIKeyRequest true "Key details"
// @Success 201 {object} CreateAPIKeyResponse
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id}/api-keys [post]
func (h *Handler) Create(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Name is optional, so an empty body is fine
		req.Name = nil
	}

	plaintext, prefix, hash, err := GenerateKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate API key: " + err.Error()})
		return
	}

	apiKey := models.APIKey{
		UserID:    user.ID,
		KeyPrefix: prefix,
		KeyHash:   hash,
		Name:      req.Name,
		IsActive:  true,
	}
	if err := h.db.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key: " + err.Error()})
		return
	}

	// The plaintext is unrecoverable after this response
	c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		ID:        apiKey.ID,
		Key:       plaintext,
		KeyPrefix: apiKey.KeyPrefix,
		Name:      apiKey.Name,
		CreatedAt: apiKey.CreatedAt,
	})
}

// ListForUser returns a user's API keys with usage, optionally bounded
// by an inclusive date range over task creation time
// @Summary List a user's API keys
// @Tags api-keys
// @Produce json
// @Param from query string false "Range start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Range end, inclusive (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {array} APIKeyWithStats
// @Router /users/{id}/api-keys [get]
func (h *Handler) ListForUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	from, to, err := analytics.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The range filter belongs in the join condition so keys without
	// in-range tasks still list with zero usage
	join := "LEFT JOIN transcription_tasks ON transcription_tasks.api_key_id = api_keys.id AND transcription_tasks.deleted_at IS NULL"
	args := []interface{}{}
	if from != nil {
		join += " AND transcription_tasks.created_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		join += " AND transcription_tasks.created_at <= ?"
		args = append(args, *to)
	}

	var rows []APIKeyWithStats
	err = h.db.Model(&models.APIKey{}).
		Select(`api_keys.id,
			api_keys.user_id,
			api_keys.key_prefix,
			api_keys.name,
			api_keys.is_active,
			api_keys.last_used_at,
			api_keys.created_at,
			COUNT(transcription_tasks.id) AS request_count,
			COALESCE(SUM(transcription_tasks.duration_seconds), 0) AS total_duration`).
		Joins(join, args...).
		Where("api_keys.user_id = ?", user.ID).
		Group("api_keys.id, api_keys.user_id, api_keys.key_prefix, api_keys.name, api_keys.is_active, api_keys.last_used_at, api_keys.created_at").
		Order("api_keys.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch API keys: " + err.Error()})
		return
	}
	if rows == nil {
		rows = []APIKeyWithStats{}
	}

	c.JSON(http.StatusOK, rows)
}

// UpdateStatus activates or deactivates an API key
func (h *Handler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var apiKey models.APIKey
	if err := h.db.First(&apiKey, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch API key: " + err.Error()})
		return
	}

	if err := h.db.Model(&apiKey).Update("is_active", *req.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update API key status: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, apiKey)
}

// Delete soft-deletes an API key
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")

	var apiKey models.APIKey
	if err := h.db.First(&apiKey, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch API key: " + err.Error()})
		return
	}

	if err := h.db.Delete(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key deleted"})
}

// VerifyKey authenticates a plaintext key presented by the
// transcription service and bumps its last_used_at
// @Summary Verify an API key
// @Description Check a bearer key against the stored hash
// @Tags api-keys
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Invalid API key"
// @Router /keys/verify [post]
func (h *Handler) VerifyKey(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}

	apiKey, err := Verify(h.db, parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	if err := UpdateLastUsed(h.db, apiKey.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update API key: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_key_id": apiKey.ID,
		"user_id":    apiKey.UserID,
	})
}

// RegisterRoutes registers the session-protected API key routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/users/:id/api-keys", h.Create)
	rg.GET("/users/:id/api-keys", h.ListForUser)
	rg.PATCH("/api-keys/:id/status", h.UpdateStatus)
	rg.DELETE("/api-keys/:id", h.Delete)
}

// RegisterVerifyRoutes registers the key verification route. It is
// authenticated by the presented key itself, not by a session.
func (h *Handler) RegisterVerifyRoutes(rg *gin.RouterGroup) {
	rg.POST("/keys/verify", h.VerifyKey)
}
