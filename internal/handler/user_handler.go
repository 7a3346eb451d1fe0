package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/service"
)

// UserHandler bundles the directory endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest is the body of an administrative create.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UpdateUserRequest is a partial update; omitted fields stay unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	created, err := h.svc.CreateUser(c.Request().Context(), actorFrom(c), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role" Enums(admin, user)
// @Param sortBy query string false "Sort column" Enums(name, createdAt, lastLogin)
// @Param order query string false "Sort direction" Enums(asc, desc)
// @Param page query int false "Page number, 1-based"
// @Param limit query int false "Page size, at most 100"
// @Param lastLogin query string false "Last login bucket" Enums(never, last7, over30)
// @Success 200 {object} service.UserPage
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	var in service.ListUsersInput
	err := echo.QueryParamsBinder(c).
		String("role", &in.Role).
		String("sortBy", &in.SortBy).
		String("order", &in.Order).
		Int("page", &in.Page).
		Int("limit", &in.Limit).
		String("lastLogin", &in.LastLogin).
		BindError()
	if err != nil {
		return badRequest(bindMessage(err))
	}

	page, err := h.svc.ListUsers(c.Request().Context(), actorFrom(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListInactiveUsers godoc
// @Summary List inactive users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param days query int false "Inactivity threshold in days" default(30)
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/inactive [get]
func (h *UserHandler) ListInactiveUsers(c echo.Context) error {
	days := service.DefaultInactiveDays
	if err := echo.QueryParamsBinder(c).Int("days", &days).BindError(); err != nil {
		return badRequest(bindMessage(err))
	}
	users, err := h.svc.ListInactiveUsers(c.Request().Context(), actorFrom(c), days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	in := service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), actorFrom(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), actorFrom(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	actor := actorFrom(c)
	if actor == nil {
		return fail(c, errors.ErrNoToken)
	}
	user, err := h.svc.GetUser(c.Request().Context(), actor, actor.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fail(c, errors.NewValidationError("id", "must be a UUID"))
	}
	return id, nil
}

func bindMessage(err error) string {
	if be, ok := err.(*echo.BindingError); ok {
		return "invalid query parameter " + be.Field
	}
	return "invalid query parameters"
}
