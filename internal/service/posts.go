package service

import (
	"context"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
)

type PostService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewPostService(s *server.Server, repos *repository.Repositories) *PostService {
	return &PostService{
		server: s,
		repos:  repos,
	}
}

// PostQuery filters a post listing. Empty fields do not filter.
type PostQuery struct {
	Published *bool
	// Title is a LIKE pattern.
	Title string
	Order string
	Page
}

func (q PostQuery) filter() repository.Filter {
	var filters []repository.Filter
	if q.Published != nil {
		filters = append(filters, repository.Eq(repository.ColPublished, *q.Published))
	}
	if q.Title != "" {
		filters = append(filters, repository.Like(repository.ColTitle, q.Title))
	}
	if len(filters) == 0 {
		return nil
	}
	return repository.And(filters...)
}

func newPostChanges(p model.NewPost) repository.Changeset {
	return repository.Changeset{
		repository.Set(repository.ColTitle, p.Title),
		repository.Set(repository.ColBody, p.Body),
		repository.Set(repository.ColPublished, p.Published),
	}
}

func updatePostChanges(p model.UpdatePost) repository.Changeset {
	var cs repository.Changeset
	if p.Title != nil {
		cs = append(cs, repository.Set(repository.ColTitle, *p.Title))
	}
	if p.Body != nil {
		cs = append(cs, repository.Set(repository.ColBody, *p.Body))
	}
	if p.Published != nil {
		cs = append(cs, repository.Set(repository.ColPublished, *p.Published))
	}
	return cs
}

// Create inserts a post inside a transaction.
func (s *PostService) Create(ctx context.Context, p model.NewPost) (*model.Post, error) {
	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) (*model.Post, error) {
		return s.repos.Posts.Create(ctx, tx, newPostChanges(p))
	})
}

// CreateMany inserts all posts or none.
func (s *PostService) CreateMany(ctx context.Context, posts []model.NewPost) ([]model.Post, error) {
	changesets := make([]repository.Changeset, 0, len(posts))
	for _, p := range posts {
		changesets = append(changesets, newPostChanges(p))
	}

	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) ([]model.Post, error) {
		return s.repos.Posts.CreateMany(ctx, tx, changesets)
	})
}

func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.Post, error) {
		return s.repos.Posts.Get(ctx, c, id)
	})
}

// Lookup is Get with a missing post reported as nil rather than an error.
func (s *PostService) Lookup(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if sqlerr.IsNotFound(err) {
		return nil, nil
	}
	return post, err
}

func (s *PostService) List(ctx context.Context, q PostQuery) ([]model.Post, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.Post, error) {
		return s.repos.Posts.List(ctx, c, repository.ListOptions{
			Filter: q.filter(),
			Order:  ParseOrder(q.Order),
			Limit:  q.Limit,
			Offset: q.Offset,
		})
	})
}

// Update applies the non-nil fields of p.
func (s *PostService) Update(ctx context.Context, id int64, p model.UpdatePost) (*model.Post, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.Post, error) {
		return s.repos.Posts.Update(ctx, c, id, updatePostChanges(p))
	})
}

// Publish marks a post as published. Publishing twice is not an error.
func (s *PostService) Publish(ctx context.Context, id int64) (*model.Post, error) {
	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) (*model.Post, error) {
		post, err := s.repos.Posts.Get(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if post.Published {
			return post, nil
		}

		return s.repos.Posts.Update(ctx, tx, id, repository.Changeset{
			repository.Set(repository.ColPublished, true),
		})
	})
}

// PublishByTitle publishes every draft whose title matches the LIKE pattern
// and returns how many posts changed.
func (s *PostService) PublishByTitle(ctx context.Context, pattern string) (int64, error) {
	if pattern == "" {
		return 0, sqlerr.Malformed("title pattern is required")
	}

	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) (int64, error) {
		return s.repos.Posts.UpdateWhere(ctx, tx,
			repository.And(
				repository.Like(repository.ColTitle, pattern),
				repository.Eq(repository.ColPublished, false),
			),
			repository.Changeset{repository.Set(repository.ColPublished, true)},
		)
	})
}

// Delete removes a post and returns it as it was.
func (s *PostService) Delete(ctx context.Context, id int64) (*model.Post, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.Post, error) {
		return s.repos.Posts.Delete(ctx, c, id)
	})
}

// DeleteByTitle removes every post whose title matches the LIKE pattern
// and returns how many were removed.
func (s *PostService) DeleteByTitle(ctx context.Context, pattern string) (int64, error) {
	if pattern == "" {
		return 0, sqlerr.Malformed("title pattern is required")
	}

	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (int64, error) {
		return s.repos.Posts.DeleteWhere(ctx, c, repository.Like(repository.ColTitle, pattern))
	})
}
