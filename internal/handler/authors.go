package handler

import (
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/labstack/echo/v4"
)

type AuthorHandler struct {
	Handler
	authors *service.AuthorService
}

func NewAuthorHandler(s *server.Server, authors *service.AuthorService) *AuthorHandler {
	return &AuthorHandler{
		Handler: NewHandler(s),
		authors: authors,
	}
}

type CreateAuthorRequest struct {
	model.NewAuthor
}

func (r *CreateAuthorRequest) Validate() error { return validate(r) }

func (h *AuthorHandler) List(c echo.Context, _ *EmptyRequest) ([]model.AuthorWithBooks, error) {
	return h.authors.ListWithBooks(c.Request().Context())
}

func (h *AuthorHandler) Create(c echo.Context, req *CreateAuthorRequest) (*model.Author, error) {
	return h.authors.Create(c.Request().Context(), req.NewAuthor)
}

func (h *AuthorHandler) Books(c echo.Context, req *IDRequest) ([]model.Book, error) {
	return h.authors.Books(c.Request().Context(), req.ID)
}
