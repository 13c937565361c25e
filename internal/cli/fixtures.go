package cli

import (
	"io"
	"os"

	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/deppfellow/bookshelf/internal/validation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Fixtures is the document read by `bookshelfctl seed`:
//
//	books:
//	  - title: Dune
//	    authors: [Frank Herbert]
//	    pages:
//	      - page_number: 1
//	        content: A beginning is the time...
type Fixtures struct {
	Books []service.BookImport `yaml:"books"`
}

// ParseFixtures decodes and validates a fixtures document. Unknown keys are
// rejected.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("fixtures file is empty")
		}
		return nil, errors.Wrap(err, "failed to parse fixtures")
	}

	for i := range f.Books {
		b := &f.Books[i]
		if err := validation.Struct(&b.NewBook); err != nil {
			return nil, errors.Wrapf(err, "books[%d]", i)
		}
		for j := range b.Pages {
			if err := validation.Struct(&b.Pages[j]); err != nil {
				return nil, errors.Wrapf(err, "books[%d].pages[%d]", i, j)
			}
		}
		for j, name := range b.Authors {
			if name == "" {
				return nil, errors.Errorf("books[%d].authors[%d]: name is required", i, j)
			}
		}
	}

	return &f, nil
}

// LoadFixtures reads fixtures from path.
func LoadFixtures(path string) (*Fixtures, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open fixtures")
	}
	defer file.Close()

	return ParseFixtures(file)
}
