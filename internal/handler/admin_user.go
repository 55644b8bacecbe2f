package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shibbu04/EventBook/internal/model"
	"github.com/shibbu04/EventBook/internal/repository"
)

// AdminUserHandler serves the admin user-management surface.
type AdminUserHandler struct {
	Users *repository.UserRepo
}

func NewAdminUserHandler(users *repository.UserRepo) *AdminUserHandler {
	return &AdminUserHandler{Users: users}
}

// List handles GET /v1/admin/users with ?search=, ?page= and ?limit=.
// Password hashes never leave this layer.
func (h *AdminUserHandler) List(c echo.Context) error {
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, c.QueryParam("search"), page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
	}

	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, Name: u.Name, Email: u.Email, Mobile: u.Mobile, Role: u.Role})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users":      out,
		"pagination": paginate(page, limit, total),
	})
}

type roleReq struct {
	Role string `json:"role"`
}

// UpdateRole handles PUT /v1/admin/users/:id/role. Admins cannot
// demote themselves, which keeps at least one admin reachable.
func (h *AdminUserHandler) UpdateRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user or admin"})
	}
	if self, err := getUserID(c); err == nil && self == id && req.Role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot demote yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// Delete handles DELETE /v1/admin/users/:id. Users holding confirmed
// bookings are refused with 409.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if self, err := getUserID(c); err == nil && self == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
