// Command featsynth synthesizes relational features for e-commerce tables
// and merges them back into each table.
package main

import (
	"os"

	"github.com/roach88/featsynth/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
