package mcp

import (
	"context"
	"os"
	"time"

	"fichas/internal/logging"
)

// WatchParent cancels the server when its parent process goes away (the MCP
// client exited or restarted). It polls the parent PID and never touches
// stdin, which belongs to the stdio transport.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, interval time.Duration, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process exited, shutting down", "ppid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
