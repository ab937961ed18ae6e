package main

import (
	"os"
)

func main() {
	if executeError := NewRootCmd().Execute(); nil != executeError {
		os.Exit(1)
	}
}
