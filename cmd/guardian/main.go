// guardian serves the personal-safety dashboard API.
//
// Usage:
//
//	guardian serve [--addr=:8080] [--mode=release]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
