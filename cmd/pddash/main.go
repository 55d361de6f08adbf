package main

import "github.com/livp123/pddash/cmd/pddash/commands"

func main() {
	commands.Execute()
}
