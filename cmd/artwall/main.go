package main

import "github.com/tessro/artwall/internal/cli"

func main() {
	cli.Execute()
}
