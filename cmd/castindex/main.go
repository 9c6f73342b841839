// Command castindex discovers, chunks, embeds, and stores a codebase for
// semantic search.
package main

import "github.com/castindex/indexer/internal/cli"

func main() {
	cli.Execute()
}
