package main

import "github.com/deppfellow/bookshelf/internal/cli"

func main() {
	cli.Execute()
}
