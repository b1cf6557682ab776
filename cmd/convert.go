package cmd

import (
	"errors"

	"github.com/PrimozLavric/LogiPathTracer/asset/reader"
	"github.com/PrimozLavric/LogiPathTracer/renderer"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/urfave/cli"
)

// Convert a scene into device resources and display the converter stats.
func ConvertScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	r, dev, err := newRenderer(ctx)
	if err != nil {
		return err
	}
	defer dev.Close()
	defer r.Close()

	return convert(r, sc)
}

// Build the options from the optional config file and apply flag overrides.
func rendererOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.DefaultOptions()
	if cfg := ctx.String("config"); cfg != "" {
		var err error
		if opts, err = renderer.LoadOptions(cfg); err != nil {
			return opts, err
		}
	}

	if ctx.IsSet("tracer") {
		opts.Tracer = ctx.String("tracer")
	}
	if ctx.IsSet("backend") {
		opts.Backend = ctx.String("backend")
	}
	if ctx.IsSet("device") {
		opts.Device = ctx.Int("device")
	}
	return opts, opts.Validate()
}

func newRenderer(ctx *cli.Context) (*renderer.Renderer, *renderer.Device, error) {
	opts, err := rendererOptions(ctx)
	if err != nil {
		return nil, nil, err
	}

	dev, err := renderer.NewDevice(opts)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("using %s device %q with the %s tracer", opts.Backend, dev.Name, opts.Tracer)

	conv, err := renderer.NewConverter(dev.Uploader(), opts)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return renderer.New(conv), dev, nil
}

func convert(r *renderer.Renderer, sc *scene.Scene) error {
	if err := r.LoadScene(sc); err != nil {
		return err
	}

	if _, err := r.Camera(); err != nil {
		logger.Warningf("scene %q: %v", sc.Name, err)
	}
	logger.Noticef("converter statistics\n%s", r.Converter().Stats())
	return nil
}
