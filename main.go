package main

import "github.com/warningbypass/warningweb/cmd"

func main() {
	cmd.Execute()
}
