package main

import "lmagents/internal/cli"

func main() {
	cli.Execute()
}
