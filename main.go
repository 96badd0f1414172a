package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ataboo/go-ata-login/pkg/cli"
	"github.com/ataboo/go-ata-login/pkg/common"
)

func main() {
	if err := common.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCmd(common.SettingsFromEnv())
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
