package service

import (
	"context"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
)

type BookService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewBookService(s *server.Server, repos *repository.Repositories) *BookService {
	return &BookService{
		server: s,
		repos:  repos,
	}
}

func (s *BookService) Create(ctx context.Context, b model.NewBook) (*model.Book, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.Book, error) {
		return s.repos.Books.Create(ctx, c, repository.Changeset{
			repository.Set(repository.ColTitle, b.Title),
		})
	})
}

// ListWithPages returns every book with its pages, loading all pages in
// a single query.
func (s *BookService) ListWithPages(ctx context.Context) ([]model.BookWithPages, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.BookWithPages, error) {
		books, err := s.repos.Books.List(ctx, c, repository.ListOptions{})
		if err != nil {
			return nil, err
		}

		ids := make([]int64, 0, len(books))
		for _, b := range books {
			ids = append(ids, b.ID)
		}

		pages, err := s.repos.BookPages.Load(ctx, c, ids)
		if err != nil {
			return nil, err
		}

		res := make([]model.BookWithPages, 0, len(books))
		for _, b := range books {
			res = append(res, model.BookWithPages{Book: b, Pages: pages[b.ID]})
		}
		return res, nil
	})
}

// GetWithPages loads a book and then its pages.
func (s *BookService) GetWithPages(ctx context.Context, id int64) (*model.BookWithPages, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.BookWithPages, error) {
		book, err := s.repos.Books.Get(ctx, c, id)
		if err != nil {
			return nil, err
		}

		pages, err := s.repos.BookPages.Load(ctx, c, []int64{id})
		if err != nil {
			return nil, err
		}

		return &model.BookWithPages{Book: *book, Pages: pages[id]}, nil
	})
}

// GetWithPagesJoined returns the same result as GetWithPages from one left
// join instead of two queries.
func (s *BookService) GetWithPagesJoined(ctx context.Context, id int64) (*model.BookWithPages, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.BookWithPages, error) {
		pairs, err := repository.LeftJoin(ctx, c, s.repos.BookPage, repository.JoinOptions{
			Filter: repository.Eq(repository.ColID, id),
		})
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			return nil, sqlerr.NotFound(repository.BookSchema.Table, id)
		}

		res := &model.BookWithPages{Book: pairs[0].Left, Pages: []model.Page{}}
		for _, p := range pairs {
			if p.Right != nil {
				res.Pages = append(res.Pages, *p.Right)
			}
		}
		return res, nil
	})
}

// PagesWithBook returns (page, book) pairs for one book via an inner join.
func (s *BookService) PagesWithBook(ctx context.Context, bookID int64) ([]model.PageWithBook, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.PageWithBook, error) {
		if _, err := s.repos.Books.Get(ctx, c, bookID); err != nil {
			return nil, err
		}

		pairs, err := repository.InnerJoin(ctx, c, s.repos.PageBook, repository.JoinOptions{
			Filter: repository.Eq(repository.ColBookID, bookID),
		})
		if err != nil {
			return nil, err
		}

		res := make([]model.PageWithBook, 0, len(pairs))
		for _, p := range pairs {
			res = append(res, model.PageWithBook{Page: p.Left, Book: *p.Right})
		}
		return res, nil
	})
}

// BooksWithPage returns a (book, page) pair per page, plus a pair with a
// nil page for every book without pages.
func (s *BookService) BooksWithPage(ctx context.Context) ([]model.BookWithPage, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.BookWithPage, error) {
		pairs, err := repository.LeftJoin(ctx, c, s.repos.BookPage, repository.JoinOptions{})
		if err != nil {
			return nil, err
		}

		res := make([]model.BookWithPage, 0, len(pairs))
		for _, p := range pairs {
			res = append(res, model.BookWithPage{Book: p.Left, Page: p.Right})
		}
		return res, nil
	})
}

// CreatePage adds a page to an existing book.
func (s *BookService) CreatePage(ctx context.Context, bookID int64, p model.NewPage) (*model.Page, error) {
	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) (*model.Page, error) {
		if _, err := s.repos.Books.Get(ctx, tx, bookID); err != nil {
			return nil, err
		}
		return s.repos.Pages.Create(ctx, tx, newPageChanges(bookID, p))
	})
}

func newPageChanges(bookID int64, p model.NewPage) repository.Changeset {
	return repository.Changeset{
		repository.Set(repository.ColPageNum, p.PageNumber),
		repository.Set(repository.ColContent, p.Content),
		repository.Set(repository.ColBookID, bookID),
	}
}

// Authors returns the authors of a book.
func (s *BookService) Authors(ctx context.Context, bookID int64) ([]model.Author, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.Author, error) {
		if _, err := s.repos.Books.Get(ctx, c, bookID); err != nil {
			return nil, err
		}

		authors, err := s.repos.BookAuthors.Load(ctx, c, []int64{bookID})
		if err != nil {
			return nil, err
		}
		return authors[bookID], nil
	})
}

// LinkAuthor records authorID as an author of bookID. Both must exist;
// linking twice is a conflict.
func (s *BookService) LinkAuthor(ctx context.Context, bookID, authorID int64) (*model.BookAuthor, error) {
	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) (*model.BookAuthor, error) {
		if _, err := s.repos.Books.Get(ctx, tx, bookID); err != nil {
			return nil, err
		}
		if _, err := s.repos.Authors.Get(ctx, tx, authorID); err != nil {
			return nil, err
		}

		link := model.BookAuthor{BookID: bookID, AuthorID: authorID}
		if err := s.repos.LinkBookAuthor(ctx, tx, link); err != nil {
			return nil, err
		}
		return &link, nil
	})
}

// BookImport is a book with its pages and the names of its authors.
type BookImport struct {
	model.NewBook `yaml:",inline"`

	Pages   []model.NewPage `yaml:"pages"`
	Authors []string        `yaml:"authors"`
}

// Import stores books with their pages and authors in one transaction.
// Authors are matched by name and created when missing. Either everything
// is stored or nothing is.
func (s *BookService) Import(ctx context.Context, books []BookImport) ([]model.BookWithPages, error) {
	return inTx(ctx, s.server.DB, func(ctx context.Context, tx database.Tx) ([]model.BookWithPages, error) {
		authors := make(map[string]int64)
		res := make([]model.BookWithPages, 0, len(books))

		for _, imp := range books {
			book, err := s.repos.Books.Create(ctx, tx, repository.Changeset{
				repository.Set(repository.ColTitle, imp.Title),
			})
			if err != nil {
				return nil, err
			}

			changesets := make([]repository.Changeset, 0, len(imp.Pages))
			for _, p := range imp.Pages {
				changesets = append(changesets, newPageChanges(book.ID, p))
			}

			pages, err := s.repos.Pages.CreateMany(ctx, tx, changesets)
			if err != nil {
				return nil, err
			}

			for _, name := range imp.Authors {
				id, err := s.authorID(ctx, tx, authors, name)
				if err != nil {
					return nil, err
				}

				link := model.BookAuthor{BookID: book.ID, AuthorID: id}
				if err := s.repos.LinkBookAuthor(ctx, tx, link); err != nil {
					return nil, err
				}
			}

			res = append(res, model.BookWithPages{Book: *book, Pages: pages})
		}

		return res, nil
	})
}

func (s *BookService) authorID(ctx context.Context, q database.Querier, seen map[string]int64, name string) (int64, error) {
	if id, ok := seen[name]; ok {
		return id, nil
	}

	author, err := s.repos.Authors.Find(ctx, q, repository.ListOptions{
		Filter: repository.Eq(repository.ColName, name),
	})
	if sqlerr.IsNotFound(err) {
		author, err = s.repos.Authors.Create(ctx, q, repository.Changeset{
			repository.Set(repository.ColName, name),
		})
	}
	if err != nil {
		return 0, err
	}

	seen[name] = author.ID
	return author.ID, nil
}
