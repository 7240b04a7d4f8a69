package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory-service/internal/usecase/user"
	pkgerrors "user-directory-service/pkg/errors"
	"user-directory-service/pkg/logger"
	"user-directory-service/pkg/security"
)

// BasicRealm is advertised on 401 responses to owner-authenticated routes.
const BasicRealm = `Basic realm="users"`

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	UserID    int64  `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// CreateUserResponse is returned by POST /users
type CreateUserResponse struct {
	UserID int64 `json:"userId"`
}

// UpdateUserResponse is returned by PATCH /users/:id
type UpdateUserResponse struct {
	Updated int64 `json:"updated"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Warn("Invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON})
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{Body: body})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, CreateUserResponse{UserID: resp.ID})
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	u := resp.User
	c.JSON(http.StatusOK, UserResponse{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Password:  u.Password,
	})
}

// UpdateUser handles PATCH /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	// A missing or malformed header is passed on as empty credentials
	// so that every authentication failure gets the same answer.
	var creds user.Credentials
	if basic, err := security.ParseBasicAuth(c.GetHeader("Authorization")); err == nil {
		creds = user.Credentials{Email: basic.Username, Password: basic.Password}
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Warn("Invalid update user request", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON})
		return
	}

	ctx := logger.WithUserID(c.Request.Context(), strconv.FormatInt(id, 10))
	resp, err := h.uc.UpdateUser(ctx, user.UpdateUserRequest{ID: id, Credentials: creds, Body: body})
	if err != nil {
		var unauthorized *pkgerrors.UnauthorizedError
		if errors.As(err, &unauthorized) {
			c.Header("WWW-Authenticate", BasicRealm)
		}
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, UpdateUserResponse{Updated: resp.Updated})
}
