package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// signalLoop turns OS signals into daemon actions. SIGINT and SIGTERM end
// the loop; SIGHUP calls onHangup, which reopens the log file.
type signalLoop struct {
	ch       chan os.Signal
	onHangup func()
}

func newSignalLoop(onHangup func()) *signalLoop {
	return &signalLoop{ch: make(chan os.Signal, 4), onHangup: onHangup}
}

func (l *signalLoop) listen() {
	signal.Notify(l.ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

func (l *signalLoop) stop() {
	signal.Stop(l.ch)
}

// run blocks until a shutdown signal arrives, returning it, or until ctx
// is done, returning nil.
func (l *signalLoop) run(ctx context.Context) os.Signal {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-l.ch:
			if sig != syscall.SIGHUP {
				return sig
			}
			if l.onHangup != nil {
				l.onHangup()
			}
		}
	}
}
