package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/dmitrijs2005/vars/internal/server/models"
	"github.com/dmitrijs2005/vars/internal/server/services"
	"github.com/gin-gonic/gin"
)

// UserService is the business logic consumed by the handlers.
type UserService interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	Register(ctx context.Context, name, email, password, avatarURL string) (*models.PublicUser, error)
	Get(ctx context.Context, id int32) (*models.PublicUser, error)
	List(ctx context.Context, page, pageSize int) (*services.UserPage, error)
	Update(ctx context.Context, actor, id int32, name, email, avatarURL string) (*models.PublicUser, error)
}

type Handler struct {
	users UserService
}

func NewHandler(us UserService) *Handler {
	return &Handler{users: us}
}

type authPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

type createUserPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type updateUserPayload struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type paginationQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// Login exchanges {email,password} for an access token. The email field
// may hold a user name as well.
func (h *Handler) Login(c *gin.Context) {
	var p authPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, auth.ErrMissingCredentials)
		return
	}

	token, err := h.users.Login(c.Request.Context(), p.Email, p.Password)
	if err != nil {
		// an unusable stored hash looks like a wrong password to the caller
		if errors.Is(err, auth.ErrHashBackend) {
			err = auth.ErrWrongCredentials
		}
		fail(c, err)
		return
	}

	ok(c, authResponse{AccessToken: token})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var p createUserPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, errBadRequest)
		return
	}

	u, err := h.users.Register(c.Request.Context(), p.Name, p.Email, p.Password, p.Avatar)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var q paginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, errBadRequest)
		return
	}

	page, err := h.users.List(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}

	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	claims, found := claimsOf(c)
	if !found {
		fail(c, auth.ErrInvalidToken)
		return
	}

	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}

	var p updateUserPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, errBadRequest)
		return
	}

	u, err := h.users.Update(c.Request.Context(), claims.User.ID, id, p.Name, p.Email, p.Avatar)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, u)
}

// Me answers with the identity frozen into the caller's token.
func (h *Handler) Me(c *gin.Context) {
	claims, found := claimsOf(c)
	if !found {
		fail(c, auth.ErrInvalidToken)
		return
	}
	ok(c, claims.User)
}

func (h *Handler) NotFound(c *gin.Context) {
	code, msg := classify(common.ErrorNotFound)
	c.AbortWithStatusJSON(http.StatusNotFound, Response{Code: code, Message: msg})
}

func pathID(c *gin.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid user id", common.ErrorValidation)
	}
	return int32(id), nil
}
