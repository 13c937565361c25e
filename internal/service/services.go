// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data.
//
// Every operation checks one connection out of the pool and returns it
// before the call completes, whatever the outcome. Operations run on a
// context detached from client cancellation so a disconnect does not abort
// a query halfway through.
package service

import (
	"context"
	"strings"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/rs/zerolog"
)

type Services struct {
	Auth    *AuthService
	Posts   *PostService
	Users   *UserService
	Books   *BookService
	Authors *AuthorService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	return &Services{
		Auth:    NewAuthService(s),
		Posts:   NewPostService(s, repos),
		Users:   NewUserService(s, repos),
		Books:   NewBookService(s, repos),
		Authors: NewAuthorService(s, repos),
	}
}

// withConn runs fn on a pooled connection.
func withConn[T any](ctx context.Context, pool database.Pool, fn func(context.Context, database.Conn) (T, error)) (T, error) {
	ctx = context.WithoutCancel(ctx)
	return database.WithConn(ctx, pool, func(c database.Conn) (T, error) {
		return fn(ctx, c)
	})
}

// inTx runs fn inside a transaction on a pooled connection.
func inTx[T any](ctx context.Context, pool database.Pool, fn func(context.Context, database.Tx) (T, error)) (T, error) {
	ctx = context.WithoutCancel(ctx)
	return database.RunInTransaction(ctx, pool, func(tx database.Tx) (T, error) {
		return fn(ctx, tx)
	})
}

// Page bounds a listing. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// ParseOrder turns "title,-id" into ascending title then descending id.
// Column names are checked by the repository.
func ParseOrder(s string) []repository.Order {
	var orders []repository.Order
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "-"):
			orders = append(orders, repository.Desc(part[1:]))
		default:
			orders = append(orders, repository.Asc(strings.TrimPrefix(part, "+")))
		}
	}
	return orders
}

// loggerFrom returns the request logger placed in ctx by the HTTP
// middleware, or fallback outside a request.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
