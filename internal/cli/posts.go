package cli

import (
	"strconv"

	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/deppfellow/bookshelf/internal/validation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPostsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Create, inspect, publish and delete posts",
	}

	cmd.AddCommand(
		newPostsCreateCommand(a),
		newPostsGetCommand(a),
		newPostsListCommand(a),
		newPostsPublishCommand(a),
		newPostsDeleteCommand(a),
	)

	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newPostsCreateCommand(a *app) *cobra.Command {
	var p model.NewPost

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.Struct(&p); err != nil {
				return err
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			post, err := a.services.Posts.Create(cmd.Context(), p)
			if err != nil {
				return err
			}

			return a.print(post, func() {
				a.success("Created post #%d", post.ID)
			})
		},
	}

	cmd.Flags().StringVar(&p.Title, "title", "", "Post title")
	cmd.Flags().StringVar(&p.Body, "body", "", "Post body")
	cmd.Flags().BoolVar(&p.Published, "published", false, "Publish immediately")

	return cmd
}

func newPostsGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			post, err := a.services.Posts.Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if post == nil {
				return errors.Errorf("post #%d not found", id)
			}

			return a.print(post, func() { a.printPost(post) })
		},
	}
}

func newPostsListCommand(a *app) *cobra.Command {
	var (
		published string
		q         service.PostQuery
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if published != "" {
				v, err := strconv.ParseBool(published)
				if err != nil {
					return errors.Errorf("invalid --published value %q", published)
				}
				q.Published = &v
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			posts, err := a.services.Posts.List(cmd.Context(), q)
			if err != nil {
				return err
			}

			return a.print(posts, func() { a.printPosts(posts) })
		},
	}

	cmd.Flags().StringVar(&published, "published", "", "Only published (true) or drafts (false)")
	cmd.Flags().StringVar(&q.Title, "title", "", "LIKE pattern on the title")
	cmd.Flags().StringVar(&q.Order, "order", "", "Sort columns, e.g. -id,title")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Maximum number of posts (0 for all)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Posts to skip")

	return cmd
}

func newPostsPublishCommand(a *app) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "publish [id]",
		Short: "Publish a post by id, or every draft matching --title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (title == "") {
				return errors.New("pass either an id or --title")
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			if title != "" {
				n, err := a.services.Posts.PublishByTitle(cmd.Context(), title)
				if err != nil {
					return err
				}
				return a.print(map[string]int64{"published": n}, func() {
					a.success("Published %d post(s)", n)
				})
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			post, err := a.services.Posts.Publish(cmd.Context(), id)
			if err != nil {
				return err
			}

			return a.print(post, func() {
				a.success("Published post #%d", post.ID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "LIKE pattern on the title")

	return cmd
}

func newPostsDeleteCommand(a *app) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a post by id, or every post matching --title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (title == "") {
				return errors.New("pass either an id or --title")
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			if title != "" {
				n, err := a.services.Posts.DeleteByTitle(cmd.Context(), title)
				if err != nil {
					return err
				}
				return a.print(map[string]int64{"deleted": n}, func() {
					a.success("Deleted %d post(s)", n)
				})
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			post, err := a.services.Posts.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			return a.print(post, func() {
				a.success("Deleted post #%d", post.ID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "LIKE pattern on the title")

	return cmd
}
