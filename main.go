package main

import (
	"github.com/schemabind/schemabind/cmd"
)

var version = "v0.3.1"

func main() {
	cmd.Execute(version)
}
