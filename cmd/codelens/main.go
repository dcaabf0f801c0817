package main

import (
	"os"

	"github.com/mvp-joe/codelens/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
