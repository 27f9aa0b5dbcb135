package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"github.com/dudu/retouch/internal/config"
	"github.com/dudu/retouch/internal/detector"
	"github.com/dudu/retouch/internal/inference"
	"github.com/dudu/retouch/internal/logger"
	"github.com/dudu/retouch/internal/session"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "YAML settings `FILE`",
		EnvVar: "RETOUCH_CONFIG",
	},
	cli.StringFlag{
		Name:   "models-dir",
		Usage:  "directory holding scrfd_10g.onnx and face_mesh.onnx",
		EnvVar: "RETOUCH_MODELS",
	},
	cli.StringFlag{
		Name:   "onnxruntime",
		Usage:  "ONNX Runtime shared library `PATH`",
		EnvVar: "ONNXRUNTIME_LIB",
	},
	cli.BoolFlag{
		Name:  "coreml",
		Usage: "try the CoreML execution provider",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "trace, debug, info, warn or error",
	},
	cli.StringFlag{
		Name:  "log-format",
		Usage: "console or json",
	},
}

// env is the shared setup every command needs
type env struct {
	conf     config.Config
	log      zerolog.Logger
	detector *detector.Detector
	session  *session.Session
}

// loadConfig reads the config file if one is given and applies flags on top
func loadConfig(ctx *cli.Context) (config.Config, error) {
	conf := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		c, err := config.Load(path)
		if err != nil {
			return conf, err
		}
		conf = c
	}

	if dir := ctx.GlobalString("models-dir"); dir != "" {
		conf.Models.SCRFD = dir + "/scrfd_10g.onnx"
		conf.Models.FaceMesh = dir + "/face_mesh.onnx"
	}
	if lib := ctx.GlobalString("onnxruntime"); lib != "" {
		conf.Models.RuntimeLib = lib
	}
	if ctx.GlobalBool("coreml") {
		conf.Models.CoreML = true
	}
	if lvl := ctx.GlobalString("log-level"); lvl != "" {
		conf.Log.Level = lvl
	}
	if f := ctx.GlobalString("log-format"); f != "" {
		conf.Log.Format = f
	}

	return conf, conf.Validate()
}

// newEnv loads settings, starts ONNX Runtime and creates the detector and
// an empty session
func newEnv(ctx *cli.Context) (*env, error) {
	conf, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Level: conf.Log.Level, Format: conf.Log.Format, Out: os.Stderr})
	if err != nil {
		return nil, err
	}

	if err := inference.Initialize(inference.Options{
		LibraryPath: conf.Models.RuntimeLib,
		CoreML:      conf.Models.CoreML,
		Log:         log,
	}); err != nil {
		return nil, err
	}

	det, err := detector.New(detectorConfig(conf), log)
	if err != nil {
		inference.Shutdown()
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	return &env{
		conf:     conf,
		log:      log,
		detector: det,
		session:  session.New(det, log),
	}, nil
}

func detectorConfig(conf config.Config) detector.Config {
	return detector.Config{
		SCRFDModelPath: conf.Models.SCRFD,
		DetectionSize:  conf.Detection.InputSize,
		ConfThreshold:  conf.Detection.Confidence,
		NMSThreshold:   conf.Detection.NMS,
		FaceMesh: detector.FaceMeshConfig{
			ModelPath:      conf.Models.FaceMesh,
			InputName:      conf.Models.MeshInput,
			LandmarksName:  conf.Models.MeshLandmarks,
			ScoreName:      conf.Models.MeshScore,
			InputSize:      conf.Detection.MeshSize,
			ChannelsLast:   conf.Models.MeshNHWC,
			ScoreThreshold: conf.Detection.MeshScore,
			CropScale:      conf.Detection.CropScale,
		},
	}
}

// Close releases the session, models and runtime
func (e *env) Close() error {
	e.session.Close()
	return errors.Join(e.detector.Close(), inference.Shutdown())
}
