package main

import "github.com/avelines/salevaultd/internal/cli"

func main() {
	cli.Execute()
}
