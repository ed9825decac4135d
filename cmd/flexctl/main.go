package main

import "github.com/rawbytedev/flexus/cmd/flexctl/cmd"

func main() {
	cmd.Execute()
}
