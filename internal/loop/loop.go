// Package loop is the main event loop described in original_source/src/main.c:
// poll for a power-loss request, read one NMEA line with a bounded
// timeout, feed it to the parser, run any completed fix through the
// movement filter, and persist accepted fixes to storage.
package loop

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trackrecorder/internal/fix"
	"trackrecorder/internal/filter"
	"trackrecorder/internal/hal"
	"trackrecorder/internal/nmeacore"
	"trackrecorder/internal/storage"
)

// ReadTimeout is how long ReadLine blocks for one NMEA sentence before
// the loop reconsiders a shutdown request, matching main.c's 1100ms.
const ReadTimeout = 1100 * time.Millisecond

// PowerMonitor is the subset of power.Monitor the loop depends on.
type PowerMonitor interface {
	IsShutdownRequested() bool
}

// Loop owns the wiring between UART, the parser, the filter, and storage.
type Loop struct {
	uart    hal.UART
	clock   hal.Clock
	power   PowerMonitor
	storage *storage.State
	parser  *nmeacore.State
	filter  *filter.State
	log     *zap.SugaredLogger

	SentencesRead int
	FixesAccepted int
	FixesRejected int
}

// New wires a loop. store may be nil to run with logging-only output
// (no medium available), matching main.c's HW_VALIDATION_TEST fallback.
func New(uart hal.UART, clock hal.Clock, power PowerMonitor, store *storage.State, log *zap.SugaredLogger) *Loop {
	return &Loop{
		uart:    uart,
		clock:   clock,
		power:   power,
		storage: store,
		parser:  nmeacore.New(),
		filter:  filter.New(),
		log:     log,
	}
}

// Run processes sentences until ctx is cancelled or a shutdown request is
// observed from the power monitor, then returns nil. Read/parse/filter
// errors are logged and skipped rather than treated as fatal, matching
// main.c's "continue" control flow on every rejection path.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if l.power != nil && l.power.IsShutdownRequested() {
			l.log.Info("shutdown requested, stopping event loop")
			return nil
		}

		line, err := l.uart.ReadLine(ReadTimeout)
		if err != nil {
			l.log.Warnw("uart read failed", "error", err)
			continue
		}
		if line == "" {
			continue
		}
		l.SentencesRead++

		result := l.parser.Feed(line)
		if result == nmeacore.Error {
			l.log.Debugw("sentence rejected", "line", line)
			continue
		}
		if result != nmeacore.FixReady {
			continue
		}

		f, ok := l.parser.Take()
		if !ok {
			continue
		}
		if !f.Flags.Has(fix.Valid) || !f.Flags.Has(fix.HasLatLon) {
			continue
		}

		if outcome := l.filter.Process(f); outcome != filter.Accept {
			l.FixesRejected++
			l.log.Debugw("fix rejected", "reason", outcome.String())
			continue
		}
		l.FixesAccepted++

		if l.storage == nil {
			l.log.Infow("fix accepted", "lat", f.Latitude, "lon", f.Longitude)
			continue
		}
		if werr := l.storage.WriteFix(f, l.clock.NowMs()); werr != storage.OK {
			l.log.Errorw("storage write failed", "error", werr)
		}
	}
}
