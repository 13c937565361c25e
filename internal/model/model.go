// Package model holds the entities stored by bookshelf.
//
// Every entity has a store-assigned int64 key. New* types carry the fields of
// a row about to be inserted; Update* types carry optional fields for a
// partial update, where nil means "leave unchanged".
package model

// Post is a blog post.
type Post struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

type NewPost struct {
	Title     string `json:"title" yaml:"title" validate:"required,max=255"`
	Body      string `json:"body" yaml:"body"`
	Published bool   `json:"published" yaml:"published"`
}

type UpdatePost struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Body      *string `json:"body,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// User is an account. Email is optional.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Remark   string `json:"remark"`
	Email    Email  `json:"email,omitempty"`
}

type NewUser struct {
	Username string `json:"username" validate:"required,max=255"`
	Remark   string `json:"remark"`
	Email    Email  `json:"email,omitempty"`
}

type UpdateUser struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=255"`
	Remark   *string `json:"remark,omitempty"`
	Email    *Email  `json:"email,omitempty"`
}

type Book struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type NewBook struct {
	Title string `json:"title" yaml:"title" validate:"required,max=255"`
}

// Page belongs to a Book through BookID.
type Page struct {
	ID         int64  `json:"id"`
	PageNumber int64  `json:"page_number"`
	Content    string `json:"content"`
	BookID     int64  `json:"book_id"`
}

type NewPage struct {
	PageNumber int64  `json:"page_number" yaml:"page_number" validate:"min=0"`
	Content    string `json:"content" yaml:"content" validate:"required"`
	BookID     int64  `json:"book_id" yaml:"-"`
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type NewAuthor struct {
	Name string `json:"name" yaml:"name" validate:"required,max=255"`
}

// BookAuthor links a Book and an Author.
type BookAuthor struct {
	BookID   int64 `json:"book_id"`
	AuthorID int64 `json:"author_id"`
}

// BookWithPages is a book together with its pages in insertion order.
type BookWithPages struct {
	Book
	Pages []Page `json:"pages"`
}

// AuthorWithBooks is an author together with the books they wrote.
type AuthorWithBooks struct {
	Author
	Books []Book `json:"books"`
}

// PageWithBook pairs a page with the book it belongs to.
type PageWithBook struct {
	Page Page `json:"page"`
	Book Book `json:"book"`
}

// BookWithPage pairs a book with one of its pages. Page is nil for a book
// without pages.
type BookWithPage struct {
	Book Book  `json:"book"`
	Page *Page `json:"page"`
}
