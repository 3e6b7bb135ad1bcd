package main

import "github.com/agilebank/seqfile/internal/cli"

func main() {
	cli.Execute()
}
