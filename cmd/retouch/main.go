package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli"
)

func init() {
	// Lock the main goroutine to the main OS thread.
	// This is required on macOS for OpenCV's highgui and for fyne.
	runtime.LockOSThread()
}

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "retouch"
	app.Usage = "Landmark-driven portrait retouching"
	app.Version = version
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		ApplyCommand,
		MasksCommand,
		EditCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
