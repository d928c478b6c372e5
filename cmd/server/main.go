package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/vars/internal/server"
	"github.com/dmitrijs2005/vars/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
