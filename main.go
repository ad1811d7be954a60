package main

import (
	"os"

	"github.com/armctl/armctl/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:]))
}
