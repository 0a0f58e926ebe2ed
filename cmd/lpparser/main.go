package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rafabd1/LPParser/cmd"
)

func main() {
	printBanner()

	ctx, stop := setupSignalHandling()
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n--> %v\n", color.New(color.FgRed, color.Bold).Sprint("Error"), err)
		stop()
		os.Exit(1)
	}
}

// setupSignalHandling cancels the returned context on the first Ctrl+C so
// the crawl stops and still saves what it found. A second one exits at once.
func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Shutting down...")
		fmt.Fprintln(os.Stderr, "Please wait while the results are saved...")
		cancel()

		<-c
		os.Exit(130)
	}()

	return ctx, func() {
		signal.Stop(c)
		cancel()
	}
}

func printBanner() {
	banner := ` _      ___         ___
| |    | _ \  ___  | _ \  __ _   _ _   ___  ___   _ _
| |__  |  _/ |___| |  _/ / _` + "`" + ` | | '_| (_-< / -_) | '_|
|____| |_|         |_|   \__,_| |_|   /__/ \___| |_|   v%s

`
	fmt.Fprintf(os.Stderr, color.New(color.FgCyan).Sprint(banner), cmd.Version)
}
