package main

import (
	"github.com/sidkik/syncb/cmd"
	"github.com/sidkik/syncb/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
