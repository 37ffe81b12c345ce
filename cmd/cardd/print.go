package main

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
)

// printInfo will print a formatted info message to stdout.
func printInfo(msg string) {
	fmt.Println(aurora.Bold(aurora.Blue("[info]")), msg)
}

// printWarning will print a formatted warning message to stdout.
func printWarning(msg string) {
	fmt.Println(aurora.Bold(aurora.Yellow("[warning]")), msg)
}

// printError will print a formatted error message to stderr.
func printError(msg string) {
	fmt.Fprintln(os.Stderr, aurora.Bold(aurora.Red("[error]")), msg)
}
