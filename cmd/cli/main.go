package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/vars/internal/admin"
)

func main() {

	ctx := context.Background()
	stdio := &admin.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}

	os.Exit(admin.Run(ctx, os.Args[1:], stdio, admin.PostgresMigrator))

}
