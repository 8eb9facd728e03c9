package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// AuthHandler issues JWTs for the back office. New accounts are gated on
// an unexpired auth code issued by a superadmin.
type AuthHandler struct {
	db     *gorm.DB
	secret []byte
}

func NewAuthHandler(db *gorm.DB, secret []byte) *AuthHandler {
	return &AuthHandler{db: db, secret: secret}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin models.Admin
	if err := h.db.Where("username = ?", input.Username).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.issueToken(&admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": admin,
	})
}

// Register redeems an auth code for a new admin account. The code is
// claimed inside the same transaction that creates the account, so a code
// can never be redeemed twice.
func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		AuthCode string `json:"authCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	var admin models.Admin
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var code models.AuthCode
		if err := tx.Where("code = ?", input.AuthCode).First(&code).Error; err != nil {
			return errInvalidCode
		}
		now := time.Now()
		if !code.Usable(now) {
			return errInvalidCode
		}

		admin = models.Admin{
			Username:     input.Username,
			PasswordHash: string(hash),
			Role:         "admin",
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		code.UsedBy = admin.ID
		code.UsedAt = &now
		code.Active = false
		return tx.Save(&code).Error
	})

	if err == errInvalidCode {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired auth code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	token, err := h.issueToken(&admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"admin": admin,
	})
}

func (h *AuthHandler) issueToken(admin *models.Admin) (string, error) {
	claims := jwt.MapClaims{
		"sub":  admin.ID,
		"role": admin.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

var errInvalidCode = errors.New("invalid auth code")
