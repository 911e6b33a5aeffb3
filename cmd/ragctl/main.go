// Command ragctl ingests documents and asks questions without the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(openApp).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
