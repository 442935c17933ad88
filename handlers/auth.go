package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/database"
	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Currency string `json:"currency"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
	// Trips joined through pending invitations at registration.
	JoinedTrips []string `json:"joined_trips,omitempty"`
}

// POST /auth/register
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	currency := req.Currency
	if currency == "" {
		currency = "CNY"
	}
	if !models.IsSupportedCurrency(currency) {
		utils.BadRequest(c, "Unsupported currency")
		return
	}

	// Check if email already exists
	err := database.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&models.User{}).Error
	if err == nil {
		utils.Conflict(c, "Email already registered")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalError(c, "Failed to hash password")
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Currency:     currency,
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		utils.InternalError(c, "Failed to create user")
		return
	}

	// Pending invitations become memberships right away so the new user sees
	// their trips on first load.
	var joined []string
	trips, err := svc.Trips.AcceptInvitations(c.Request.Context(), user)
	if err != nil {
		logger.L().Warn("accepting invitations failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	for _, id := range trips {
		joined = append(joined, id.String())
	}

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Registration successful", AuthResponse{
		Token:       token,
		User:        user.ToResponse(),
		JoinedTrips: joined,
	})
}

// POST /auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}
