package main

import (
	"os"

	lexfindcmder "github.com/lexfindco/lexfind/cmd/lexfind"
)

func main() {
	cmd := lexfindcmder.NewLexfindCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
