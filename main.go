// Blog is a small publishing service: articles with comments, categories and
// keyword search, served as HTML pages and as a JSON API.
//
// Run `blog serve --storage memory --seed` for a demo with two users,
// Peter and Julia, or `blog routes` to print the router documentation.
package main

import "github.com/SergeyParamoshkin/blog/internal/cli"

func main() {
	cli.Execute()
}
