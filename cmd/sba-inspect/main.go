// Package main is the sba-inspect command itself.
package main

import (
	"log"
	"os"

	"go.viam.com/sba/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
