package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
