package cmd

import (
	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/urfave/cli"
)

var logger = log.New("logipt")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("no-color") {
		log.SetColor(false)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
