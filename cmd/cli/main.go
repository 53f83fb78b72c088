package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/paperhub/internal/client/cli"
	"github.com/dmitrijs2005/paperhub/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}

}
