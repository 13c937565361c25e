package service

import (
	"context"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/lib/job"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
)

type UserService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewUserService(s *server.Server, repos *repository.Repositories) *UserService {
	return &UserService{
		server: s,
		repos:  repos,
	}
}

// UserQuery filters a user listing by exact username.
type UserQuery struct {
	Username string
	Order    string
	Page
}

func (s *UserService) List(ctx context.Context, q UserQuery) ([]model.User, error) {
	var filter repository.Filter
	if q.Username != "" {
		filter = repository.Eq(repository.ColUsername, q.Username)
	}

	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) ([]model.User, error) {
		return s.repos.Users.List(ctx, c, repository.ListOptions{
			Filter: filter,
			Order:  ParseOrder(q.Order),
			Limit:  q.Limit,
			Offset: q.Offset,
		})
	})
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.User, error) {
		return s.repos.Users.Get(ctx, c, id)
	})
}

// Create inserts a user. A user with an email address gets a welcome
// email through the job queue when one is running.
func (s *UserService) Create(ctx context.Context, u model.NewUser) (*model.User, error) {
	user, err := withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.User, error) {
		return s.repos.Users.Create(ctx, c, repository.Changeset{
			repository.Set(repository.ColUsername, u.Username),
			repository.Set(repository.ColRemark, u.Remark),
			repository.Set(repository.ColEmail, u.Email),
		})
	})
	if err != nil {
		return nil, err
	}

	s.enqueueWelcome(ctx, user)

	return user, nil
}

// enqueueWelcome never fails the request: the user already exists.
func (s *UserService) enqueueWelcome(ctx context.Context, user *model.User) {
	if s.server.Job == nil || user.Email.IsZero() {
		return
	}

	task, err := job.NewWelcomeEmailTask(job.WelcomeEmailPayload{
		UserID:   user.ID,
		To:       user.Email.String(),
		Username: user.Username,
	})
	if err == nil {
		err = s.server.Job.Enqueue(context.WithoutCancel(ctx), task)
	}
	if err != nil {
		loggerFrom(ctx, s.server.Logger).Warn().
			Err(err).
			Int64("user_id", user.ID).
			Msg("failed to enqueue welcome email")
	}
}

// Update applies the non-nil fields of u. An empty email clears it.
func (s *UserService) Update(ctx context.Context, id int64, u model.UpdateUser) (*model.User, error) {
	var cs repository.Changeset
	if u.Username != nil {
		cs = append(cs, repository.Set(repository.ColUsername, *u.Username))
	}
	if u.Remark != nil {
		cs = append(cs, repository.Set(repository.ColRemark, *u.Remark))
	}
	if u.Email != nil {
		cs = append(cs, repository.Set(repository.ColEmail, *u.Email))
	}

	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.User, error) {
		return s.repos.Users.Update(ctx, c, id, cs)
	})
}

func (s *UserService) Delete(ctx context.Context, id int64) (*model.User, error) {
	return withConn(ctx, s.server.DB, func(ctx context.Context, c database.Conn) (*model.User, error) {
		return s.repos.Users.Delete(ctx, c, id)
	})
}
