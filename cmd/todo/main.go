// Command todo is a terminal client for the todo API.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		printFail(err.Error())
		os.Exit(1)
	}
}
