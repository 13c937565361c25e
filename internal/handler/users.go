package handler

import (
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	Handler
	users *service.UserService
}

func NewUserHandler(s *server.Server, users *service.UserService) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(s),
		users:   users,
	}
}

type ListUsersRequest struct {
	PageQuery
	Username string `query:"username" json:"username"`
}

func (r *ListUsersRequest) Validate() error { return validate(r) }

type CreateUserRequest struct {
	model.NewUser
}

func (r *CreateUserRequest) Validate() error { return validate(r) }

type UpdateUserRequest struct {
	ID int64 `param:"id" json:"-"`
	model.UpdateUser
}

func (r *UpdateUserRequest) Validate() error { return validate(r) }

func (h *UserHandler) List(c echo.Context, req *ListUsersRequest) ([]model.User, error) {
	return h.users.List(c.Request().Context(), service.UserQuery{
		Username: req.Username,
		Order:    req.Order,
		Page:     service.Page{Limit: req.Limit, Offset: req.Offset},
	})
}

func (h *UserHandler) Get(c echo.Context, req *IDRequest) (*model.User, error) {
	return h.users.Get(c.Request().Context(), req.ID)
}

func (h *UserHandler) Create(c echo.Context, req *CreateUserRequest) (*model.User, error) {
	return h.users.Create(c.Request().Context(), req.NewUser)
}

func (h *UserHandler) Update(c echo.Context, req *UpdateUserRequest) (*model.User, error) {
	return h.users.Update(c.Request().Context(), req.ID, req.UpdateUser)
}

func (h *UserHandler) Delete(c echo.Context, req *IDRequest) (*model.User, error) {
	return h.users.Delete(c.Request().Context(), req.ID)
}
