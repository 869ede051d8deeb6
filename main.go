package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"scltemplates/src/cli"
	"scltemplates/src/config"
	"scltemplates/src/dialog"
	"scltemplates/src/events"
	"scltemplates/src/logging"
	"scltemplates/src/workspace"
)

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Printf("无法获取工作目录: %v\n", err)
		return
	}
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, wd)
	if err != nil {
		fmt.Printf("%v，使用默认配置\n", err)
	}
	diag := hclog.New(&hclog.LoggerOptions{
		Name:   "scltemplates",
		Level:  cfg.Level(),
		Output: os.Stderr,
	})

	console := cli.NewConsole(os.Stdin, os.Stdout)
	bus := events.NewBus()
	logger := logging.NewManager(fs, diag.Named("log"))
	bus.Subscribe(logger)
	ws := workspace.NewWorkspace(wd, workspace.Options{
		Fs:      fs,
		Bus:     bus,
		Logger:  logger,
		Decider: console,
		Dialog:  dialog.NewConsole(console),
		Config:  &cfg,
		Diag:    diag,
	})
	if err := ws.Restore(); err != nil {
		fmt.Printf("恢复工作区失败: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	dispatcher := cli.NewDispatcher(ws, console, diag.Named("cli"))
	dispatcher.Run(ctx)
}
