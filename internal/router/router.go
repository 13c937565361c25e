// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/deppfellow/bookshelf/internal/handler"
	"github.com/deppfellow/bookshelf/internal/middleware"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with the global middleware chain,
// system routes and the /api/v1 resource routes.
func NewRouter(s *server.Server, services *service.Services) *echo.Echo {
	h := handler.NewHandlers(s, services)
	mw := middleware.NewMiddlewares(s)

	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	// Order matters: the request id and the New Relic transaction must exist
	// before the logger is enhanced, and the logger before request logging.
	r.Use(
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
		mw.Global.Secure(),
		mw.Global.CORS(),
		mw.Global.BodyLimit(),
	)

	registerSystemRoutes(r, h, s)

	v1 := r.Group("/api/v1")
	if mw.RateLimit.Enabled() {
		v1.Use(mw.RateLimit.Limit())
	}

	registerUserRoutes(v1, h, mw)
	registerPostRoutes(v1, h, mw)
	registerBookRoutes(v1, h, mw)
	registerAuthorRoutes(v1, h, mw)

	return r
}

func registerUserRoutes(v1 *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	write := mw.Auth.WriteAccess()

	users := v1.Group("/users")
	users.GET("", handler.Handle(h.Users.List, http.StatusOK))
	users.GET("/:id", handler.Handle(h.Users.Get, http.StatusOK))
	users.POST("", handler.Handle(h.Users.Create, http.StatusCreated), write)
	users.PUT("/:id", handler.Handle(h.Users.Update, http.StatusOK), write)
	users.DELETE("/:id", handler.Handle(h.Users.Delete, http.StatusOK), write)
}

func registerPostRoutes(v1 *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	write := mw.Auth.WriteAccess()

	posts := v1.Group("/posts")
	posts.GET("", handler.Handle(h.Posts.List, http.StatusOK))
	posts.GET("/:id", handler.Handle(h.Posts.Get, http.StatusOK))
	posts.POST("", handler.Handle(h.Posts.Create, http.StatusCreated), write)
	posts.POST("/batch", handler.Handle(h.Posts.CreateMany, http.StatusCreated), write)
	posts.PUT("/:id", handler.Handle(h.Posts.Update, http.StatusOK), write)
	posts.POST("/publish", handler.Handle(h.Posts.PublishByTitle, http.StatusOK), write)
	posts.POST("/:id/publish", handler.Handle(h.Posts.Publish, http.StatusOK), write)
	posts.DELETE("/:id", handler.Handle(h.Posts.Delete, http.StatusOK), write)
	posts.DELETE("", handler.Handle(h.Posts.DeleteByTitle, http.StatusOK), write)
}

func registerBookRoutes(v1 *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	write := mw.Auth.WriteAccess()

	books := v1.Group("/books")
	books.GET("", handler.Handle(h.Books.List, http.StatusOK))
	books.POST("", handler.Handle(h.Books.Create, http.StatusCreated), write)
	books.GET("/:id", handler.Handle(h.Books.Get, http.StatusOK))
	books.GET("/:id/joined", handler.Handle(h.Books.GetJoined, http.StatusOK))
	books.GET("/:id/pages", handler.Handle(h.Books.Pages, http.StatusOK))
	books.POST("/:id/pages", handler.Handle(h.Books.CreatePage, http.StatusCreated), write)
	books.GET("/:id/authors", handler.Handle(h.Books.Authors, http.StatusOK))
	books.POST("/:id/authors/:author_id", handler.Handle(h.Books.LinkAuthor, http.StatusCreated), write)

	v1.GET("/books-left-join", handler.Handle(h.Books.LeftJoin, http.StatusOK))
}

func registerAuthorRoutes(v1 *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	authors := v1.Group("/authors")
	authors.GET("", handler.Handle(h.Authors.List, http.StatusOK))
	authors.POST("", handler.Handle(h.Authors.Create, http.StatusCreated), mw.Auth.WriteAccess())
	authors.GET("/:id/books", handler.Handle(h.Authors.Books, http.StatusOK))
}
