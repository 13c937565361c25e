// Package repository maps entities to SQL.
//
// A Schema declares how an entity is stored; Repository[T] builds every
// statement from it for the dialect of the connection it runs on. Relations
// (HasMany, ManyToMany) and joins (InnerJoin, LeftJoin) load related rows
// with a single query each.
package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/model"
)

const booksAuthorsTable = "books_authors"

// Repositories groups the repositories and relations of every entity.
type Repositories struct {
	Posts   *Repository[model.Post]
	Users   *Repository[model.User]
	Books   *Repository[model.Book]
	Pages   *Repository[model.Page]
	Authors *Repository[model.Author]

	BookPages   HasMany[model.Page]
	BookAuthors ManyToMany[model.Author]
	AuthorBooks ManyToMany[model.Book]

	PageBook Join[model.Page, model.Book]
	BookPage Join[model.Book, model.Page]
}

func NewRepositories() *Repositories {
	return &Repositories{
		Posts:   New(PostSchema),
		Users:   New(UserSchema),
		Books:   New(BookSchema),
		Pages:   New(PageSchema),
		Authors: New(AuthorSchema),

		BookPages: HasMany[model.Page]{
			Child:      PageSchema,
			ForeignKey: ColBookID,
			ParentID:   func(p *model.Page) int64 { return p.BookID },
		},
		BookAuthors: ManyToMany[model.Author]{
			Target:    AuthorSchema,
			JoinTable: booksAuthorsTable,
			OwnerKey:  ColBookID,
			TargetKey: ColAuthorID,
		},
		AuthorBooks: ManyToMany[model.Book]{
			Target:    BookSchema,
			JoinTable: booksAuthorsTable,
			OwnerKey:  ColAuthorID,
			TargetKey: ColBookID,
		},

		PageBook: Join[model.Page, model.Book]{
			Left:        PageSchema,
			Right:       BookSchema,
			LeftColumn:  ColBookID,
			RightColumn: ColID,
		},
		BookPage: Join[model.Book, model.Page]{
			Left:        BookSchema,
			Right:       PageSchema,
			LeftColumn:  ColID,
			RightColumn: ColBookID,
		},
	}
}

// LinkBookAuthor inserts a row into the join table. Missing books or authors
// surface as a foreign key violation, an existing link as a unique violation.
func (r *Repositories) LinkBookAuthor(ctx context.Context, q database.Querier, link model.BookAuthor) error {
	b := newBuilder(q.Dialect())
	writeInsert(b, booksAuthorsTable, []string{ColBookID, ColAuthorID}, [][]any{{link.BookID, link.AuthorID}})

	if _, err := q.Exec(ctx, b.String(), b.args...); err != nil {
		return fmt.Errorf("link book %d to author %d: %w", link.BookID, link.AuthorID, err)
	}
	return nil
}
