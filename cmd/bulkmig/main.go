package main

import "github.com/momeni/bulkmig/cmd/bulkmig/command"

func main() {
	command.Execute()
}
