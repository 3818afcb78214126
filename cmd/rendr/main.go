package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nagiek/rendr/internal/command"
	mylog "github.com/nagiek/rendr/internal/log"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.InitApp(command.Env{}).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
