package main

import (
	"flag"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/comm/posix"
	"github.com/temoto/xively/config"
	"github.com/temoto/xively/helpers/cli"
	"github.com/temoto/xively/log2"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "xively.hcl", "")
	usePosix := cmdline.Bool("posix", false, "POSIX socket layer, plain http only")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	cfg := config.MustReadConfig(log, config.NewOsFullReader(""), *configPath)
	if !cfg.Xively.LogDebug {
		log.SetLevel(log2.LInfo)
	}

	var timeout *comm.Timeout
	var layer comm.Layer
	if *usePosix {
		pl := posix.NewLayer(cfg.NetworkTimeout())
		timeout, layer = &pl.Timeout, pl
	} else {
		nl, err := cfg.NewLayer()
		if err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		timeout, layer = &nl.Timeout, nl
	}
	client, err := cfg.NewClient(log, layer)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer client.Context().Close()

	s := newSession(client, log, timeout)
	cli.MainLoop("xively-cli", s.executor(), newCompleter())
}
