package main

import (
	"log"
	"os"

	"lattesdoc/cli"
)

func main() {
	// Remove timestamp prefix from log messages
	log.SetFlags(0)

	if err := cli.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
