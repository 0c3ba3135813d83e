package main

import "github.com/spendsentry/spendsentry/internal/cli"

func main() {
	cli.Execute()
}
