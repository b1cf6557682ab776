package main

import (
	"fmt"
	"os"

	"github.com/PrimozLavric/LogiPathTracer/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	rendererFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "tracer, t",
			Value: "pt",
			Usage: "scene converter to use (pt or rtx)",
		},
		cli.StringFlag{
			Name:  "backend, b",
			Value: "host",
			Usage: "device backend (host or vulkan)",
		},
		cli.IntFlag{
			Name:  "device, d",
			Usage: "index of the vulkan device to open",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "toml file with renderer options; flags override its values",
		},
	}

	app := cli.NewApp()
	app.Name = "logipt"
	app.Usage = "convert scenes into path tracer device resources"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored log output",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "convert",
			Usage: "convert a scene and display converter statistics",
			Description: `
Parse a scene definition from a wavefront obj file and convert it into the
buffers, textures and acceleration structures consumed by the selected tracer.

The pt tracer builds software BVHs for a compute path tracer while the rtx
tracer builds hardware ray tracing acceleration structures.`,
			ArgsUsage: "scene_file.obj",
			Flags:     rendererFlags,
			Action:    cmd.ConvertScene,
		},
		{
			Name:      "info",
			Usage:     "print scene statistics",
			ArgsUsage: "scene_file.obj",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:   "list-devices",
			Usage:  "list available vulkan devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "watch",
			Usage: "convert a scene and reconvert it whenever its files change",
			Description: `
Convert a scene and watch the scene file together with every included obj,
material library and texture. Any change triggers a full reload.`,
			ArgsUsage: "scene_file.obj",
			Flags:     rendererFlags,
			Action:    cmd.WatchScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
