// Command datalake builds the song-play star schema from raw JSON logs.
package main

import (
	"fmt"
	"os"

	"datalake/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
