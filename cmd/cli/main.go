package main

import "pwarestaurants/cmd/cli/command"

func main() {
	command.Execute()
}
