package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// interruptHandler turns the first SIGINT/SIGTERM into a stop request that
// lets the file in progress finish, and the second into cancellation of the
// running external tools. A third signal gets the default behavior and
// kills the process.
type interruptHandler struct {
	stop      chan struct{}
	stopOnce  sync.Once
	cancel    context.CancelFunc
	signals   chan os.Signal
	release   func(chan<- os.Signal)
	done      chan struct{}
	closeOnce sync.Once
}

func newInterruptHandler(parent context.Context, out io.Writer) (context.Context, *interruptHandler) {
	ctx, cancel := context.WithCancel(parent)
	h := newHandler(cancel)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)
	go h.loop(out)
	return ctx, h
}

func newHandler(cancel context.CancelFunc) *interruptHandler {
	return &interruptHandler{
		stop:    make(chan struct{}),
		cancel:  cancel,
		signals: make(chan os.Signal, 2),
		release: signal.Stop,
		done:    make(chan struct{}),
	}
}

func (h *interruptHandler) loop(out io.Writer) {
	count := 0
	for {
		select {
		case <-h.done:
			return
		case <-h.signals:
			count++
			if count == 1 {
				fmt.Fprintln(out, "\nInterrupt received; stopping after the current file. Press Ctrl-C again to abort it.")
				h.requestStop()
				continue
			}
			fmt.Fprintln(out, "\nAborting current file. Press Ctrl-C again to exit immediately.")
			h.release(h.signals)
			h.cancel()
			return
		}
	}
}

func (h *interruptHandler) requestStop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Stop is closed after the first interrupt.
func (h *interruptHandler) Stop() <-chan struct{} {
	return h.stop
}

// Close detaches from the signal stream and releases the context.
func (h *interruptHandler) Close() {
	h.closeOnce.Do(func() {
		h.release(h.signals)
		close(h.done)
		h.cancel()
	})
}
