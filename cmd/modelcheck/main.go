// Command modelcheck reports whether ONNX Runtime (and optionally go-metal)
// can load the retouching models, and prints their inputs and outputs.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/dudu/retouch/internal/inference"
	"github.com/dudu/retouch/internal/logger"
)

func main() {
	app := cli.NewApp()
	app.Name = "modelcheck"
	app.Usage = "Inspect ONNX models used by retouch"
	app.ArgsUsage = "MODEL.onnx [MODEL.onnx...]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "onnxruntime",
			Usage:  "ONNX Runtime shared library `PATH`",
			EnvVar: "ONNXRUNTIME_LIB",
		},
		cli.BoolFlag{
			Name:  "metal",
			Usage: "also try importing each model with go-metal",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.ShowAppHelp(ctx)
	}

	log, err := logger.New(logger.Options{Level: "warn", Out: os.Stderr})
	if err != nil {
		return err
	}
	if err := inference.Initialize(inference.Options{LibraryPath: ctx.String("onnxruntime"), Log: log}); err != nil {
		return err
	}
	defer inference.Shutdown()

	var failed []error
	for _, path := range ctx.Args() {
		if err := check(path, ctx.Bool("metal"), log); err != nil {
			fmt.Printf("  FAILED: %v\n", err)
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
		}
		fmt.Println()
	}
	return errors.Join(failed...)
}

func check(path string, metal bool, log zerolog.Logger) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(st.Size())))

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return err
	}
	printInfo("inputs", inputs)
	printInfo("outputs", outputs)

	if md, err := ort.GetModelMetadata(path); err == nil {
		if producer, err := md.GetProducerName(); err == nil && producer != "" {
			fmt.Printf("  producer: %s\n", producer)
		}
		if version, err := md.GetVersion(); err == nil {
			fmt.Printf("  version: %d\n", version)
		}
		md.Destroy()
	} else {
		log.Debug().Err(err).Str("model", path).Msg("no metadata")
	}

	if metal {
		return checkMetal(path)
	}
	return nil
}

func printInfo(kind string, infos []ort.InputOutputInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	fmt.Printf("  %s (%d):\n", kind, len(infos))
	for _, info := range infos {
		fmt.Printf("    %s: shape=%v type=%v\n", info.Name, info.Dimensions, info.DataType)
	}
}
