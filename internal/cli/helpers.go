package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/homeward/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func logSessionStatus(w io.Writer, logger *slog.Logger, vehicleID string, phase domain.Phase, resumed, quiet bool) {
	if resumed {
		logger.Info("Session Resumed", "vehicle", vehicleID, "phase", phase.String())
		if !quiet {
			printSystemMessage(w, "Resuming %s in %s.", vehicleID, phase)
		}
		return
	}
	logger.Info("Session Created", "vehicle", vehicleID)
	if !quiet {
		printSystemMessage(w, "Session '%s' active.", vehicleID)
	}
}

func logCompletion(w io.Writer, snap *domain.Snapshot, interrupted, quiet bool) {
	if quiet || snap == nil {
		return
	}
	if interrupted {
		printSystemMessage(w, "Interrupted in %s; resume with --resume.", snap.Phase)
		return
	}
	printSystemMessage(w, "Finished in %s.", snap.Phase)
}
