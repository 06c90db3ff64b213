// Copyright 2024 The Heapbridge Authors
// This file is part of Heapbridge.
//
// Heapbridge is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Heapbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Heapbridge. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/turbo-db/heapbridge/bridge"
)

const (
	exitClean    = 0
	exitUncaught = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	app := &cli.App{
		Name:  "heapbridge",
		Usage: "a protocol-aware proxy for the host database's wire protocol",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port", Required: true},
			&cli.StringFlag{Name: "dest", Usage: "upstream host:port", Required: true},
			&cli.StringFlag{Name: "log-level", Usage: "log level (trace|debug|info|warn|error)", Value: "info"},
		},
		Action: runBridge,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("[bridge] fatal error", "err", err)
		return exitUncaught
	}
	return exitClean
}

func runBridge(c *cli.Context) error {
	if lvl, err := log.LvlFromString(c.String("log-level")); err == nil {
		log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StderrHandler))
	}

	addr := fmt.Sprintf(":%d", c.Int("port"))
	policies := bridge.NewPolicyTable()
	commands := bridge.NewCommandRegistry()

	listener, err := bridge.NewListener(addr, c.String("dest"), policies, commands)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return listener.ListenAndServe(gctx)
	})
	group.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			cancel()
		case <-gctx.Done():
		}
		return listener.ShutdownAll()
	})

	log.Info("[bridge] listening", "addr", addr, "dest", c.String("dest"))
	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
