package main

import "taskwise/cli"

func main() {
	cli.Execute()
}
