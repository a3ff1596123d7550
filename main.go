package main

import "reviewcms/commands"

func main() {
	commands.Execute()
}
