package main

import (
	"context"
	"flag"
	"os"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sdep.go/pkg/bridge"
	"github.com/robotalks/sdep.go/pkg/console"
	"github.com/robotalks/sdep.go/pkg/env"
	fx "github.com/robotalks/sdep.go/pkg/framework"
	"github.com/robotalks/sdep.go/pkg/sdep"
)

//go-build: CGO_ENABLED=0

const (
	banner      = "hello world\n"
	startSettle = 500 * time.Millisecond
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	conf := env.MustNewConfig()

	link, closer, err := conf.NewLink()
	if err != nil {
		glog.Exit(err)
	}
	// chip select idles high, let the peripheral settle.
	time.Sleep(startSettle)

	ctx, cancel := context.WithCancel(context.Background())
	var resetRequested bool
	client := conf.NewClient(link, sdep.ResetFunc(func() {
		resetRequested = true
		cancel()
	}))

	con := console.New(nil)
	con.Banner = banner
	conRunner, err := conf.NewConsoleRunnable(con)
	if err != nil {
		glog.Exit(err)
	}
	b := bridge.New(con, client).SetEcho(conf.Echo)
	loop := fx.NewLoop().Add(b).AddRunnable(fx.NamedRun("console", conRunner))

	ind, err := conf.NewIndicator()
	if err != nil {
		glog.Exit(err)
	}
	if ind != nil {
		loop.Add(ind)
	}
	mirror, err := conf.NewMirror("SDEP bridge")
	if err != nil {
		glog.Exit(err)
	}
	if mirror != nil {
		b.Observe(mirror)
		loop.Add(mirror)
	}

	glog.Infof("bridge %s started, link=%s console=%s", conf.ID, conf.Link, conf.Console)
	err = fx.NewRunnerWith(ctx).HandleSignals().Go(loop).Wait()
	if closer != nil {
		closer.Close()
	}
	if resetRequested {
		restart()
	}
	if err != nil {
		glog.Exit(err)
	}
}

// restart replaces the process with a fresh instance.
func restart() {
	glog.Info("restarting")
	glog.Flush()
	exe, err := os.Executable()
	if err != nil {
		glog.Exitf("restart: %v", err)
	}
	if err = syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		glog.Exitf("restart: %v", err)
	}
}
