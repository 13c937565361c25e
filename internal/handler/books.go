package handler

import (
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/labstack/echo/v4"
)

type BookHandler struct {
	Handler
	books *service.BookService
}

func NewBookHandler(s *server.Server, books *service.BookService) *BookHandler {
	return &BookHandler{
		Handler: NewHandler(s),
		books:   books,
	}
}

type CreateBookRequest struct {
	model.NewBook
}

func (r *CreateBookRequest) Validate() error { return validate(r) }

type CreatePageRequest struct {
	BookID     int64  `param:"id" json:"-"`
	PageNumber int64  `json:"page_number" validate:"min=0"`
	Content    string `json:"content" validate:"required"`
}

func (r *CreatePageRequest) Validate() error { return validate(r) }

type LinkAuthorRequest struct {
	BookID   int64 `param:"id" json:"-"`
	AuthorID int64 `param:"author_id" json:"-"`
}

func (r *LinkAuthorRequest) Validate() error { return nil }

func (h *BookHandler) List(c echo.Context, _ *EmptyRequest) ([]model.BookWithPages, error) {
	return h.books.ListWithPages(c.Request().Context())
}

func (h *BookHandler) Create(c echo.Context, req *CreateBookRequest) (*model.Book, error) {
	return h.books.Create(c.Request().Context(), req.NewBook)
}

func (h *BookHandler) Get(c echo.Context, req *IDRequest) (*model.BookWithPages, error) {
	return h.books.GetWithPages(c.Request().Context(), req.ID)
}

func (h *BookHandler) GetJoined(c echo.Context, req *IDRequest) (*model.BookWithPages, error) {
	return h.books.GetWithPagesJoined(c.Request().Context(), req.ID)
}

func (h *BookHandler) Pages(c echo.Context, req *IDRequest) ([]model.PageWithBook, error) {
	return h.books.PagesWithBook(c.Request().Context(), req.ID)
}

func (h *BookHandler) CreatePage(c echo.Context, req *CreatePageRequest) (*model.Page, error) {
	return h.books.CreatePage(c.Request().Context(), req.BookID, model.NewPage{
		PageNumber: req.PageNumber,
		Content:    req.Content,
	})
}

func (h *BookHandler) Authors(c echo.Context, req *IDRequest) ([]model.Author, error) {
	return h.books.Authors(c.Request().Context(), req.ID)
}

func (h *BookHandler) LinkAuthor(c echo.Context, req *LinkAuthorRequest) (*model.BookAuthor, error) {
	return h.books.LinkAuthor(c.Request().Context(), req.BookID, req.AuthorID)
}

// LeftJoin lists every (book, page) pair, with a null page for books
// without pages.
func (h *BookHandler) LeftJoin(c echo.Context, _ *EmptyRequest) ([]model.BookWithPage, error) {
	return h.books.BooksWithPage(c.Request().Context())
}
