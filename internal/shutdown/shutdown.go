// Package shutdown traps SIGINT/SIGTERM and runs cleanup tasks before the
// process exits.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Handler interface {
	Shutdown()          // Triggers a graceful shutdown programmatically.
	ShuttingDown() bool // Quickly checks if a shutdown is in progress.
	Wait()              // Blocks until shutdown tasks are complete.
}

type handler struct {
	quit         chan os.Signal
	shuttingDown chan bool
	wg           sync.WaitGroup
}

// New installs the signal handler. onShutdown (if not nil) runs after a
// SIGTERM/SIGINT is received and has 30 seconds to complete; Kubernetes
// sends SIGTERM 30 seconds before killing the pod.
func New(onShutdown func() error) Handler {
	h := &handler{
		quit:         make(chan os.Signal, 1),
		shuttingDown: make(chan bool, 1),
	}
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		signal.Notify(h.quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-h.quit
		h.shuttingDown <- true
		zap.S().Infow("Received signal, shutting down", "signal", sig.String())
		if onShutdown != nil {
			timeout := 30 * time.Second
			zap.S().Infow("Waiting for shutdown tasks to complete", "timeout", timeout)
			go func(t time.Duration) {
				<-time.After(t)
				zap.S().Errorw("Shutdown tasks did not complete in time", "timeout", t)
				_ = zap.S().Sync()
				os.Exit(1)
			}(timeout)
			if err := onShutdown(); err != nil {
				zap.S().Errorw("Error during shutdown", "error", err)
				return
			}
		}
		zap.S().Info("Shutdown tasks completed. Ready to exit.")
		os.Exit(0)
	}()

	return h
}

func (h *handler) ShuttingDown() bool {
	select {
	case <-h.shuttingDown:
		// Put the value back, in case it's checked again later during shutdown.
		h.shuttingDown <- true
		return true
	default:
		return false
	}
}

func (h *handler) Shutdown() {
	if !h.ShuttingDown() {
		h.quit <- syscall.SIGTERM
	}
}

func (h *handler) Wait() {
	h.wg.Wait()
}
