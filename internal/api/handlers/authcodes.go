package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// AuthCodeHandler manages registration codes. Superadmin-only routes.
type AuthCodeHandler struct {
	db *gorm.DB
}

func NewAuthCodeHandler(db *gorm.DB) *AuthCodeHandler {
	return &AuthCodeHandler{db: db}
}

func (h *AuthCodeHandler) Create(c *gin.Context) {
	var input struct {
		ExpiresInHours int `json:"expiresInHours"`
	}
	// Body is optional; a bare POST issues a non-expiring code
	c.ShouldBindJSON(&input)

	code := models.AuthCode{Code: generateCode(), Active: true}
	if input.ExpiresInHours > 0 {
		t := time.Now().Add(time.Duration(input.ExpiresInHours) * time.Hour)
		code.ExpiresAt = &t
	}

	if err := h.db.Create(&code).Error; err != nil {
		slog.Error("auth code create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"authCode": code})
}

func (h *AuthCodeHandler) List(c *gin.Context) {
	var codes []models.AuthCode
	if err := h.db.Order("created_at DESC").Find(&codes).Error; err != nil {
		slog.Error("auth code list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authCodes": codes})
}

// Expire deactivates a code without deleting its audit trail.
func (h *AuthCodeHandler) Expire(c *gin.Context) {
	res := h.db.Model(&models.AuthCode{}).
		Where("id = ?", c.Param("id")).
		Update("active", false)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Auth code not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthCodeHandler) Delete(c *gin.Context) {
	res := h.db.Where("id = ?", c.Param("id")).Delete(&models.AuthCode{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Auth code not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// generateCode returns a 12-hex-char code, grouped for readability.
func generateCode() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	s := hex.EncodeToString(buf)
	return s[:4] + "-" + s[4:8] + "-" + s[8:]
}
