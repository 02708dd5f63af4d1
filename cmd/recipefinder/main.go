package main

import (
	"os"

	"recipefinder/cmd/recipefinder/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
