package main

import "github.com/mbutane/mbutane/pkg/cli"

func main() {
	cli.Execute()
}
