package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixtures(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()

		f, err := ParseFixtures(strings.NewReader(`
books:
  - title: Dune
    authors: [Frank Herbert]
    pages:
      - page_number: 1
        content: A beginning is the time for taking the most delicate care.
      - page_number: 2
        content: Arrakis.
  - title: Empty
`))
		require.NoError(t, err)
		require.Len(t, f.Books, 2)

		assert.Equal(t, "Dune", f.Books[0].Title)
		assert.Equal(t, []string{"Frank Herbert"}, f.Books[0].Authors)
		require.Len(t, f.Books[0].Pages, 2)
		assert.EqualValues(t, 2, f.Books[0].Pages[1].PageNumber)
		assert.Equal(t, "Arrakis.", f.Books[0].Pages[1].Content)

		assert.Empty(t, f.Books[1].Pages)
	})

	for name, tc := range map[string]struct {
		doc string
		err string
	}{
		"Empty":          {doc: "", err: "fixtures file is empty"},
		"UnknownKey":     {doc: "books:\n  - title: Dune\n    isbn: 42\n", err: "failed to parse fixtures"},
		"MissingTitle":   {doc: "books:\n  - authors: [Someone]\n", err: "books[0]"},
		"MissingContent": {doc: "books:\n  - title: Dune\n    pages:\n      - page_number: 1\n", err: "books[0].pages[0]"},
		"BlankAuthor":    {doc: "books:\n  - title: Dune\n    authors: ['']\n", err: "books[0].authors[0]"},
		"NotYAML":        {doc: "books: [", err: "failed to parse fixtures"},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseFixtures(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestLoadFixturesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFixtures("does-not-exist.yaml")
	assert.ErrorContains(t, err, "failed to open fixtures")
}
