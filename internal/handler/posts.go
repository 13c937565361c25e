package handler

import (
	"strconv"

	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/labstack/echo/v4"
)

type PostHandler struct {
	Handler
	posts *service.PostService
}

func NewPostHandler(s *server.Server, posts *service.PostService) *PostHandler {
	return &PostHandler{
		Handler: NewHandler(s),
		posts:   posts,
	}
}

type ListPostsRequest struct {
	PageQuery
	Published string `query:"published" json:"published" validate:"omitempty,oneof=true false"`
	// Title is a LIKE pattern, e.g. "Go%".
	Title string `query:"title" json:"title"`
}

func (r *ListPostsRequest) Validate() error { return validate(r) }

type CreatePostRequest struct {
	model.NewPost
}

func (r *CreatePostRequest) Validate() error { return validate(r) }

type CreatePostsRequest struct {
	Posts []model.NewPost `json:"posts" validate:"required,min=1,max=100,dive"`
}

func (r *CreatePostsRequest) Validate() error { return validate(r) }

type UpdatePostRequest struct {
	ID int64 `param:"id" json:"-"`
	model.UpdatePost
}

func (r *UpdatePostRequest) Validate() error { return validate(r) }

type DeletePostsRequest struct {
	Title string `query:"title" json:"title" validate:"required"`
}

func (r *DeletePostsRequest) Validate() error { return validate(r) }

// PublishPostsRequest selects drafts by a LIKE pattern on the title.
type PublishPostsRequest struct {
	Title string `json:"title" validate:"required"`
}

func (r *PublishPostsRequest) Validate() error { return validate(r) }

// PublishedResponse reports how many drafts a bulk publish changed.
type PublishedResponse struct {
	Published int64 `json:"published"`
}

func (h *PostHandler) List(c echo.Context, req *ListPostsRequest) ([]model.Post, error) {
	q := service.PostQuery{
		Title: req.Title,
		Order: req.Order,
		Page:  service.Page{Limit: req.Limit, Offset: req.Offset},
	}
	if req.Published != "" {
		published, _ := strconv.ParseBool(req.Published)
		q.Published = &published
	}

	return h.posts.List(c.Request().Context(), q)
}

func (h *PostHandler) Get(c echo.Context, req *IDRequest) (*model.Post, error) {
	return h.posts.Get(c.Request().Context(), req.ID)
}

func (h *PostHandler) Create(c echo.Context, req *CreatePostRequest) (*model.Post, error) {
	return h.posts.Create(c.Request().Context(), req.NewPost)
}

func (h *PostHandler) CreateMany(c echo.Context, req *CreatePostsRequest) ([]model.Post, error) {
	return h.posts.CreateMany(c.Request().Context(), req.Posts)
}

func (h *PostHandler) Update(c echo.Context, req *UpdatePostRequest) (*model.Post, error) {
	return h.posts.Update(c.Request().Context(), req.ID, req.UpdatePost)
}

func (h *PostHandler) Publish(c echo.Context, req *IDRequest) (*model.Post, error) {
	return h.posts.Publish(c.Request().Context(), req.ID)
}

func (h *PostHandler) Delete(c echo.Context, req *IDRequest) (*model.Post, error) {
	return h.posts.Delete(c.Request().Context(), req.ID)
}

func (h *PostHandler) DeleteByTitle(c echo.Context, req *DeletePostsRequest) (*DeletedResponse, error) {
	n, err := h.posts.DeleteByTitle(c.Request().Context(), req.Title)
	if err != nil {
		return nil, err
	}
	return &DeletedResponse{Deleted: n}, nil
}

func (h *PostHandler) PublishByTitle(c echo.Context, req *PublishPostsRequest) (*PublishedResponse, error) {
	n, err := h.posts.PublishByTitle(c.Request().Context(), req.Title)
	if err != nil {
		return nil, err
	}
	return &PublishedResponse{Published: n}, nil
}
