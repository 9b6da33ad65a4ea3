// Command proptrace traces rays through a compiled map, against world brushes and static
// props, the way the lighting compiler does.
//
// Usage:
//
//	proptrace [flags] map.bsp < rays.txt
//
// Every input line holds one ray as "x0 y0 z0 x1 y1 z1". With -lights every line holds a
// sample point "x y z" instead, traced from each light entity of the map.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	vpk "github.com/galaco/vpk2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/saiko-tech/vrad-staticprops/internal/config"
	"github.com/saiko-tech/vrad-staticprops/internal/logger"
	"github.com/saiko-tech/vrad-staticprops/pkg/collide"
	"github.com/saiko-tech/vrad-staticprops/pkg/level"
	"github.com/saiko-tech/vrad-staticprops/pkg/lighttrace"
	"github.com/saiko-tech/vrad-staticprops/pkg/staticprops"
)

func main() {
	fs := flag.NewFlagSet("proptrace", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	raysPath := fs.String("rays", "", "File with one ray per line, stdin if empty")
	fromLights := fs.Bool("lights", false, "Read sample points and trace them from every light")

	_ = fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: proptrace [flags] map.bsp")
		fs.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer func() { _ = log.Sync() }()

	in := io.Reader(os.Stdin)

	if *raysPath != "" {
		f, err := os.Open(*raysPath)
		if err != nil {
			log.Error("failed to open rays", zap.Error(err))
			os.Exit(1)
		}

		defer f.Close()

		in = f
	}

	if err := run(log, cfg, fs.Arg(0), *fromLights, in, os.Stdout); err != nil {
		log.Error("proptrace failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, cfg *config.Config, mapPath string, fromLights bool, in io.Reader, out io.Writer) error {
	var (
		rays    []segment
		samples []mgl32.Vec3
		err     error
	)

	if fromLights {
		samples, err = readSamples(in)
	} else {
		rays, err = readRays(in)
	}

	if err != nil {
		return err
	}

	lvl, err := level.Open(mapPath)
	if err != nil {
		return err
	}

	if fromLights {
		lights := lvl.Lights()
		log.Debug("tracing from lights", zap.Int("lights", len(lights)), zap.Int("samples", len(samples)))

		rays = lightRays(lights, samples)
	}

	var vpks []*vpk.VPK

	for _, path := range cfg.Game.VPKs {
		v, err := level.OpenVPK(path)
		if err != nil {
			log.Warn("skipping vpk", zap.String("path", path), zap.Error(err))
			continue
		}

		vpks = append(vpks, v)
	}

	props := staticprops.NewManager(lvl.Tree, lvl.Files(cfg.Game.GameDir, cfg.Game.BaseGameDir, vpks...),
		staticprops.WithLogger(log))

	if err := props.Init(collide.New()); err != nil {
		return err
	}

	if err := props.LoadFromLump(lvl.StaticProps.Version, lvl.StaticProps.Data); err != nil {
		return errors.Wrap(err, "failed to load static props")
	}

	if err := props.MissingModels(); err != nil {
		log.Warn("static props without collision model", zap.Error(err))
	}

	log.Info("tracing", zap.Int("rays", len(rays)), zap.Int("workers", cfg.Trace.Workers))

	results := traceAll(lighttrace.New(lvl.Tree, props), rays, cfg.Trace.Workers)

	if err := writeResults(out, results); err != nil {
		return errors.Wrap(err, "failed to write results")
	}

	return props.Shutdown()
}
