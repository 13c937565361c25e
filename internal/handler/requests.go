package handler

import "github.com/deppfellow/bookshelf/internal/validation"

// EmptyRequest is bound by routes that take no input.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error { return nil }

// IDRequest carries the :id path parameter. Any integer binds, so a
// negative id reaches the service and ends in a 404; a non-integer is a 400.
type IDRequest struct {
	ID int64 `param:"id" json:"-"`
}

func (r *IDRequest) Validate() error { return nil }

// PageQuery holds the paging and ordering parameters shared by listings.
// Order is a comma separated list of columns, "-" marking descending ones.
type PageQuery struct {
	Order  string `query:"order" json:"order"`
	Limit  int    `query:"limit" json:"limit" validate:"min=0,max=1000"`
	Offset int    `query:"offset" json:"offset" validate:"min=0"`
}

// DeletedResponse reports how many rows a bulk delete removed.
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

func validate(r any) error {
	return validation.Struct(r)
}
