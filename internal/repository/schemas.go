package repository

import (
	"strings"

	"github.com/deppfellow/bookshelf/internal/model"
)

// Column names shared by services and handlers.
const (
	ColID        = "id"
	ColTitle     = "title"
	ColBody      = "body"
	ColPublished = "published"
	ColUsername  = "username"
	ColRemark    = "remark"
	ColEmail     = "email"
	ColPageNum   = "page_number"
	ColContent   = "content"
	ColBookID    = "book_id"
	ColAuthorID  = "author_id"
	ColName      = "name"
)

// EmailCodec stores model.Email as text, and the zero Email as NULL.
var EmailCodec Codec[model.Email] = emailCodec{}

type emailCodec struct{}

func (emailCodec) Encode(e model.Email) (any, error) {
	if e.IsZero() {
		return nil, nil
	}
	parsed, err := model.ParseEmail(string(e))
	if err != nil {
		return nil, err
	}
	return string(parsed), nil
}

func (emailCodec) Decode(src any) (model.Email, error) {
	s, err := Text.Decode(src)
	if err != nil {
		return "", err
	}
	return model.Email(strings.ToLower(s)), nil
}

var PostSchema = &Schema[model.Post]{
	Table: "posts",
	Key:   ColID,
	ID:    func(p *model.Post) *int64 { return &p.ID },
	Columns: []Column[model.Post]{
		Field(ColTitle, Text, func(p *model.Post) *string { return &p.Title }),
		Field(ColBody, Text, func(p *model.Post) *string { return &p.Body }),
		Field(ColPublished, Bool, func(p *model.Post) *bool { return &p.Published }),
	},
}

var UserSchema = &Schema[model.User]{
	Table: "users",
	Key:   ColID,
	ID:    func(u *model.User) *int64 { return &u.ID },
	Columns: []Column[model.User]{
		Field(ColUsername, Text, func(u *model.User) *string { return &u.Username }),
		Field(ColRemark, Text, func(u *model.User) *string { return &u.Remark }),
		Field(ColEmail, EmailCodec, func(u *model.User) *model.Email { return &u.Email }),
	},
}

var BookSchema = &Schema[model.Book]{
	Table: "books",
	Key:   ColID,
	ID:    func(b *model.Book) *int64 { return &b.ID },
	Columns: []Column[model.Book]{
		Field(ColTitle, Text, func(b *model.Book) *string { return &b.Title }),
	},
}

var PageSchema = &Schema[model.Page]{
	Table: "pages",
	Key:   ColID,
	ID:    func(p *model.Page) *int64 { return &p.ID },
	Columns: []Column[model.Page]{
		Field(ColPageNum, Int64, func(p *model.Page) *int64 { return &p.PageNumber }),
		Field(ColContent, Text, func(p *model.Page) *string { return &p.Content }),
		Field(ColBookID, Int64, func(p *model.Page) *int64 { return &p.BookID }),
	},
}

var AuthorSchema = &Schema[model.Author]{
	Table: "authors",
	Key:   ColID,
	ID:    func(a *model.Author) *int64 { return &a.ID },
	Columns: []Column[model.Author]{
		Field(ColName, Text, func(a *model.Author) *string { return &a.Name }),
	},
}
