package service

import (
	"context"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
)

type AuthorService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewAuthorService(s *server.Server, repos *repository.Repositories) *AuthorService {
	return &AuthorService{
		server: s,
		repos:  repos,
	}
}

func (s *AuthorService) Create(ctx context.Context, a model.NewAuthor) (*model.Author, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.Author, error) {
		return s.repos.Authors.Create(ctx, c, repository.Changeset{
			repository.Set(repository.ColName, a.Name),
		})
	})
}

// ListWithBooks returns every author with the books they wrote.
func (s *AuthorService) ListWithBooks(ctx context.Context) ([]model.AuthorWithBooks, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.AuthorWithBooks, error) {
		authors, err := s.repos.Authors.List(ctx, c, repository.ListOptions{})
		if err != nil {
			return nil, err
		}

		ids := make([]int64, 0, len(authors))
		for _, a := range authors {
			ids = append(ids, a.ID)
		}

		books, err := s.repos.AuthorBooks.Load(ctx, c, ids)
		if err != nil {
			return nil, err
		}

		res := make([]model.AuthorWithBooks, 0, len(authors))
		for _, a := range authors {
			res = append(res, model.AuthorWithBooks{Author: a, Books: books[a.ID]})
		}
		return res, nil
	})
}

// Books returns the books written by an author.
func (s *AuthorService) Books(ctx context.Context, authorID int64) ([]model.Book, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.Book, error) {
		if _, err := s.repos.Authors.Get(ctx, c, authorID); err != nil {
			return nil, err
		}

		books, err := s.repos.AuthorBooks.Load(ctx, c, []int64{authorID})
		if err != nil {
			return nil, err
		}
		return books[authorID], nil
	})
}
