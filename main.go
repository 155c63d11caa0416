package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aledantas2k12/pyqtdeploy/internal/pyqtdeploy"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			fmt.Printf("\n[INFO] Received %v. Cancelling build gracefully...\n", sig)
			cancel()

			// Give the running tool a moment to die and flush its
			// buffers, then allow a second signal to force an exit.
			time.Sleep(100 * time.Millisecond)

			select {
			case <-sigs:
				fmt.Println("\n[FATAL] Second interrupt received. Forcing immediate exit.")
				os.Exit(130)
			case <-time.After(500 * time.Millisecond):
			}

		case <-ctx.Done():
		}
	}()

	os.Exit(pyqtdeploy.Main(ctx, os.Args))
}
