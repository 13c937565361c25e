package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
	"github.com/deppfellow/bookshelf/internal/testutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes bookshelfctl with args against the SQLite database at url and
// returns stdout.
func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	a := &app{
		loadConfig: func() (*config.Config, error) { return testutil.Config(t, url), nil },
		out:        &out,
		errOut:     io.Discard,
	}
	t.Cleanup(func() { _ = a.close() })

	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	err := a.execute(cmd)

	return out.String(), err
}

func TestPostsCommands(t *testing.T) {
	t.Parallel()

	url := testutil.SQLiteURL(t)

	out, err := run(t, url, "migrate", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "migrated"`)

	out, err = run(t, url, "posts", "create", "--title", "Hello", "--body", "world", "--json")
	require.NoError(t, err)

	var created model.Post
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Positive(t, created.ID)
	assert.Equal(t, "Hello", created.Title)
	assert.False(t, created.Published)

	_, err = run(t, url, "posts", "create", "--title", "Draft")
	require.NoError(t, err)

	out, err = run(t, url, "posts", "publish", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Published post #1")

	_, err = run(t, url, "posts", "create", "--title", "Draft two")
	require.NoError(t, err)

	out, err = run(t, url, "posts", "publish", "--title", "%two", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"published": 1}`, out)

	out, err = run(t, url, "posts", "list", "--published", "false", "--json")
	require.NoError(t, err)

	var drafts []model.Post
	require.NoError(t, json.Unmarshal([]byte(out), &drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, "Draft", drafts[0].Title)

	out, err = run(t, url, "posts", "list", "--published", "true", "--json")
	require.NoError(t, err)

	var published []model.Post
	require.NoError(t, json.Unmarshal([]byte(out), &published))
	require.Len(t, published, 2)
	assert.Equal(t, "Hello", published[0].Title)

	out, err = run(t, url, "posts", "list", "--order=-id")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Less(t, bytes.Index([]byte(out), []byte("Draft")), bytes.Index([]byte(out), []byte("Hello")))

	out, err = run(t, url, "posts", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "published: true")

	_, err = run(t, url, "posts", "get", "99")
	assert.ErrorContains(t, err, "post #99 not found")

	out, err = run(t, url, "posts", "delete", "--title", "Dr%", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted": 2}`, out)

	out, err = run(t, url, "posts", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted post #1")
}

func TestPostsCommandsRejectBadInput(t *testing.T) {
	t.Parallel()

	url := testutil.SQLiteURL(t)

	_, err := run(t, url, "posts", "create")
	assert.Error(t, err)

	_, err = run(t, url, "posts", "get", "abc")
	assert.ErrorContains(t, err, `invalid id "abc"`)

	_, err = run(t, url, "posts", "list", "--published", "maybe")
	assert.ErrorContains(t, err, "invalid --published value")

	_, err = run(t, url, "posts", "delete")
	assert.ErrorContains(t, err, "pass either an id or --title")

	_, err = run(t, url, "posts", "publish", "1", "--title", "x")
	assert.ErrorContains(t, err, "pass either an id or --title")
}

func TestFailedCommandClosesDatabase(t *testing.T) {
	t.Parallel()

	url := testutil.SQLiteURL(t)

	a := &app{
		loadConfig: func() (*config.Config, error) { return testutil.Config(t, url), nil },
		out:        io.Discard,
		errOut:     io.Discard,
	}
	t.Cleanup(func() { _ = a.close() })

	var db *database.Database
	cmd := newRootCommand(a)
	cmd.AddCommand(&cobra.Command{
		Use: "fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			db = a.server.DB
			return errors.New("boom")
		},
	})
	cmd.SetArgs([]string{"fail"})

	require.EqualError(t, a.execute(cmd), "boom")
	assert.Nil(t, a.server)
	assert.Nil(t, a.services)

	require.NotNil(t, db)
	assert.ErrorIs(t, db.Ping(context.Background()), sqlerr.ErrBackendUnavailable)
}

func TestSeed(t *testing.T) {
	t.Parallel()

	url := testutil.SQLiteURL(t)

	file := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
books:
  - title: Good Omens
    authors: [Terry Pratchett, Neil Gaiman]
    pages:
      - page_number: 1
        content: In the beginning.
  - title: Neverwhere
    authors: [Neil Gaiman]
`), 0o600))

	out, err := run(t, url, "seed", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 book(s) with 1 page(s)")

	out, err = run(t, url, "seed", "-f", file, "--json")
	require.NoError(t, err)

	var books []model.BookWithPages
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 2)
	assert.Equal(t, "Good Omens", books[0].Title)
}

func TestEmailPreview(t *testing.T) {
	t.Parallel()

	// No database is needed; a failing config loader proves it.
	var out bytes.Buffer
	a := &app{
		loadConfig: func() (*config.Config, error) { return nil, assert.AnError },
		out:        &out,
		errOut:     io.Discard,
	}

	cmd := newRootCommand(a)
	cmd.SetArgs([]string{"email", "preview"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "welcome\n", out.String())

	out.Reset()
	cmd = newRootCommand(a)
	cmd.SetArgs([]string{"email", "preview", "welcome"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "momo")

	cmd = newRootCommand(a)
	cmd.SetArgs([]string{"email", "preview", "nope"})
	assert.ErrorContains(t, cmd.Execute(), `unknown template "nope"`)
}
