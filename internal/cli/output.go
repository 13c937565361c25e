package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/deppfellow/bookshelf/internal/lib/utils"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// print writes v as JSON with --json, and calls human otherwise.
func (a *app) print(v interface{}, human func()) error {
	if a.jsonOutput {
		return utils.PrintJSON(a.out, v)
	}
	human()
	return nil
}

func (a *app) success(format string, args ...interface{}) {
	green.Fprint(a.out, "✅ ")
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) printPosts(posts []model.Post) {
	if len(posts) == 0 {
		yellow.Fprintln(a.out, "No posts found")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPUBLISHED")
	for _, p := range posts {
		fmt.Fprintf(w, "%d\t%s\t%t\n", p.ID, p.Title, p.Published)
	}
	_ = w.Flush()
}

func (a *app) printPost(p *model.Post) {
	cyan.Fprintf(a.out, "#%d ", p.ID)
	fmt.Fprintln(a.out, p.Title)
	fmt.Fprintf(a.out, "published: %t\n", p.Published)
	if p.Body != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, p.Body)
	}
}
