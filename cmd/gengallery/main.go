package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/igolaizola/gengallery/pkg/cli"
)

// Build flags
var version = ""
var commit = ""
var date = ""

func main() {
	// Cancelled on interrupt, this also stops the server and any
	// generation waiting on the provider.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := cli.NewCommand(version, commit, date)
	if err := cmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
