package main

import (
	"github.com/leakwatch/leakwatch/internal/cli"
)

func main() {
	cli.Execute()
}
