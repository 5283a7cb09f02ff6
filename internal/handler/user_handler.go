package handler

import (
	"net/http"

	"erp-backend/internal/middleware"
	"erp-backend/internal/service"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	jwtSecret   []byte
}

func NewUserHandler(userService service.UserService, jwtSecret []byte) *UserHandler {
	return &UserHandler{userService: userService, jwtSecret: jwtSecret}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.RequireAuth(h.jwtSecret), h.Me)
	}
}

// Register creates a new user account
// @Summary      Register user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      service.RegisterUserRequest  true  "Credentials"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email and password are required"))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login authenticates a user and sets the token cookies
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      service.LoginUserRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email and password are required"))
		return
	}

	tokens, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokens.AccessToken, tokens.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh rotates the refresh token and issues a new token pair
// @Summary      Refresh tokens
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.TokenResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil || refreshToken == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "refresh token is missing"))
			return
		}
		refreshToken = body.RefreshToken
	}

	tokens, err := h.userService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid or expired refresh token"))
		return
	}

	middleware.SetTokenCookies(c, tokens.AccessToken, tokens.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Logout clears the token cookies
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	user, err := h.userService.GetByID(c.Request.Context(), userIDStr)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
