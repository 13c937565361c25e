package repository_test

import (
	"context"
	"testing"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
	"github.com/deppfellow/bookshelf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (context.Context, database.Conn, *repository.Repositories) {
	t.Helper()

	ctx := testutil.Ctx(t)
	db := testutil.Database(t)

	conn, err := db.Acquire(ctx)
	require.NoError(t, err)
	t.Cleanup(conn.Release)

	return ctx, conn, repository.NewRepositories()
}

func postChanges(title, body string, published bool) repository.Changeset {
	return repository.Changeset{
		repository.Set(repository.ColTitle, title),
		repository.Set(repository.ColBody, body),
		repository.Set(repository.ColPublished, published),
	}
}

func TestCreateGet(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	created, err := repos.Posts.Create(ctx, conn, postChanges("Hello", "first post", true))
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, model.Post{ID: created.ID, Title: "Hello", Body: "first post", Published: true}, *created)

	got, err := repos.Posts.Get(ctx, conn, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	for _, id := range []int64{-1, 0, 42} {
		_, err := repos.Users.Get(ctx, conn, id)
		require.Error(t, err)
		assert.True(t, sqlerr.IsNotFound(err))

		var nf *sqlerr.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "users", nf.Table)
		assert.Equal(t, id, nf.Key)
	}
}

func TestUpdatePartial(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	created, err := repos.Posts.Create(ctx, conn, postChanges("Draft", "body", false))
	require.NoError(t, err)

	updated, err := repos.Posts.Update(ctx, conn, created.ID, repository.Changeset{
		repository.Set(repository.ColPublished, true),
	})
	require.NoError(t, err)
	assert.Equal(t, model.Post{ID: created.ID, Title: "Draft", Body: "body", Published: true}, *updated)

	same, err := repos.Posts.Update(ctx, conn, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, updated, same)

	_, err = repos.Posts.Update(ctx, conn, created.ID+100, repository.Changeset{repository.Set(repository.ColTitle, "x")})
	assert.True(t, sqlerr.IsNotFound(err))
}

func TestWritesRejectMalformedChangesets(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	created, err := repos.Posts.Create(ctx, conn, postChanges("Draft", "", false))
	require.NoError(t, err)

	for name, cs := range map[string]repository.Changeset{
		"Key":       {repository.Set(repository.ColID, int64(7))},
		"Unknown":   {repository.Set("colour", "red")},
		"WrongType": {repository.Set(repository.ColPublished, "yes")},
		"Twice":     {repository.Set(repository.ColTitle, "a"), repository.Set(repository.ColTitle, "b")},
	} {
		_, err := repos.Posts.Update(ctx, conn, created.ID, cs)
		assert.Equal(t, sqlerr.KindMalformedInput, sqlerr.KindOf(err), name)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	created, err := repos.Posts.Create(ctx, conn, postChanges("Bye", "", false))
	require.NoError(t, err)

	deleted, err := repos.Posts.Delete(ctx, conn, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = repos.Posts.Get(ctx, conn, created.ID)
	assert.True(t, sqlerr.IsNotFound(err))

	_, err = repos.Posts.Delete(ctx, conn, created.ID)
	assert.True(t, sqlerr.IsNotFound(err))
}

func TestListFilterOrderPage(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	_, err := repos.Posts.CreateMany(ctx, conn, []repository.Changeset{
		postChanges("Go generics", "", true),
		postChanges("Go channels", "", false),
		postChanges("Rust traits", "", true),
		postChanges("Go modules", "", true),
	})
	require.NoError(t, err)

	empty, err := repos.Posts.List(ctx, conn, repository.ListOptions{Filter: repository.Eq(repository.ColTitle, "nothing")})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	published, err := repos.Posts.List(ctx, conn, repository.ListOptions{
		Filter: repository.And(
			repository.Eq(repository.ColPublished, true),
			repository.Like(repository.ColTitle, "Go%"),
		),
		Order: []repository.Order{repository.Asc(repository.ColTitle)},
	})
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "Go generics", published[0].Title)
	assert.Equal(t, "Go modules", published[1].Title)

	page, err := repos.Posts.List(ctx, conn, repository.ListOptions{
		Order:  []repository.Order{repository.Desc(repository.ColID)},
		Limit:  2,
		Offset: 1,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Rust traits", page[0].Title)
	assert.Equal(t, "Go channels", page[1].Title)

	tail, err := repos.Posts.List(ctx, conn, repository.ListOptions{Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "Go modules", tail[0].Title)

	_, err = repos.Posts.List(ctx, conn, repository.ListOptions{Order: []repository.Order{repository.Asc("colour")}})
	assert.Equal(t, sqlerr.KindMalformedInput, sqlerr.KindOf(err))

	_, err = repos.Posts.List(ctx, conn, repository.ListOptions{Limit: -1})
	assert.Equal(t, sqlerr.KindMalformedInput, sqlerr.KindOf(err))
}

func TestFindAbsent(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	_, err := repos.Posts.Find(ctx, conn, repository.ListOptions{Filter: repository.Eq(repository.ColTitle, "missing")})
	assert.True(t, sqlerr.IsNotFound(err))
}

func TestBulkWrites(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	created, err := repos.Posts.CreateMany(ctx, conn, []repository.Changeset{
		postChanges("draft one", "", false),
		postChanges("draft two", "", false),
		postChanges("final", "", true),
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Less(t, created[0].ID, created[1].ID)
	assert.Less(t, created[1].ID, created[2].ID)

	_, err = repos.Posts.CreateMany(ctx, conn, []repository.Changeset{
		postChanges("a", "", false),
		{repository.Set(repository.ColTitle, "b")},
	})
	assert.Equal(t, sqlerr.KindMalformedInput, sqlerr.KindOf(err))

	n, err := repos.Posts.UpdateWhere(ctx, conn,
		repository.Like(repository.ColTitle, "draft%"),
		repository.Changeset{repository.Set(repository.ColPublished, true)},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := repos.Posts.Count(ctx, conn, repository.Eq(repository.ColPublished, true))
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	n, err = repos.Posts.DeleteWhere(ctx, conn, repository.Like(repository.ColTitle, "draft%"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err = repos.Posts.Count(ctx, conn, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = repos.Posts.DeleteWhere(ctx, conn, nil)
	assert.Equal(t, sqlerr.KindMalformedInput, sqlerr.KindOf(err))
}

func TestUserEmailCodec(t *testing.T) {
	t.Parallel()

	ctx, conn, repos := setup(t)

	momo, err := repos.Users.Create(ctx, conn, repository.Changeset{
		repository.Set(repository.ColUsername, "momo"),
		repository.Set(repository.ColRemark, ""),
		repository.Set(repository.ColEmail, model.Email("Momo@Example.com")),
	})
	require.NoError(t, err)
	assert.Equal(t, model.Email("momo@example.com"), momo.Email)

	anon, err := repos.Users.Create(ctx, conn, repository.Changeset{
		repository.Set(repository.ColUsername, "anon"),
		repository.Set(repository.ColRemark, "no mail"),
		repository.Set(repository.ColEmail, model.Email("")),
	})
	require.NoError(t, err)
	assert.True(t, anon.Email.IsZero())

	withoutEmail, err := repos.Users.List(ctx, conn, repository.ListOptions{Filter: repository.Eq(repository.ColEmail, nil)})
	require.NoError(t, err)
	require.Len(t, withoutEmail, 1)
	assert.Equal(t, anon.ID, withoutEmail[0].ID)

	_, err = repos.Users.Create(ctx, conn, repository.Changeset{
		repository.Set(repository.ColUsername, "bad"),
		repository.Set(repository.ColRemark, ""),
		repository.Set(repository.ColEmail, model.Email("not-an-address")),
	})
	assert.Equal(t, sqlerr.KindMalformedInput, sqlerr.KindOf(err))

	_, err = repos.Users.Create(ctx, conn, repository.Changeset{
		repository.Set(repository.ColUsername, "momo"),
		repository.Set(repository.ColRemark, ""),
	})
	require.Error(t, err)
	assert.Equal(t, sqlerr.UniqueViolation, sqlerr.ErrCode(err))
}
