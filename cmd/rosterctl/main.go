package main

import (
	"github.com/dailyroster/rosterd/internal/cli"
)

func main() {
	cli.Execute()
}
