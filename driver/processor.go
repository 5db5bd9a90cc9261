package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/fifo"
	"github.com/sirupsen/logrus"
)

// errorLogCooldown bounds how often a Processor logs a repeated ingest
// failure, so a thrashing ingest endpoint can't flood the process log the
// way a thrashing journald socket once could.
const errorLogCooldown = time.Minute

// Processor owns one FIFO for its entire lifetime: it opens the path, drives
// Reader -> Normalizer -> Ingester in a loop, and races that loop against
// ctx's cancellation, which is triggered through the Registry's stopSignal
// (see registry.go).
type Processor struct {
	cfg     *Config
	ingest  Ingester
	log     *logrus.Entry
	openFn  func(ctx context.Context, path string) (io.ReadCloser, error)

	errMu          sync.Mutex
	lastErrLog     time.Time
	suppressedErrs int
}

// NewProcessor builds a Processor that opens real FIFOs and posts to ingest.
func NewProcessor(cfg *Config, ingest Ingester, log *logrus.Entry) *Processor {
	return &Processor{
		cfg:    cfg,
		ingest: ingest,
		log:    log,
		openFn: openFifo,
	}
}

func openFifo(ctx context.Context, path string) (io.ReadCloser, error) {
	return fifo.OpenFifo(ctx, path, syscall.O_RDONLY, 0)
}

// Process opens path and reads frames until ctx is cancelled or the stream
// reaches a clean EOF. It returns nil for both of those outcomes; it
// returns a non-nil error only for a FIFO-open failure or a fatal framing/
// normalization error (ingest errors are logged and never fatal here).
func (p *Processor) Process(ctx context.Context, path string) error {
	f, err := p.openFn(ctx, path)
	if err != nil {
		return fmt.Errorf("opening fifo %s: %w", path, err)
	}
	defer f.Close()

	// Ensure the FIFO is closed when ctx is cancelled, to interrupt a
	// blocking read -- the stop-vs-read race is won by closing the
	// resource the read is blocked on, not by making the read itself
	// interruptible at arbitrary points.
	closeDone := make(chan struct{})
	defer close(closeDone)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-closeDone:
		}
	}()

	reader := NewFrameReader(f)
	for {
		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading frame from %s: %w", path, err)
		}

		msg, err := Normalize(frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("normalizing frame from %s: %w", path, err)
		}

		if _, err := p.ingest.Ingest(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logIngestError("ingest failed for %s: %v", path, err)
			continue
		}
	}
}

// logIngestError rate-limits error logging to at most once per
// errorLogCooldown, logging a count of what was suppressed in between.
func (p *Processor) logIngestError(format string, args ...any) {
	p.errMu.Lock()
	defer p.errMu.Unlock()

	now := time.Now()
	elapsed := now.Sub(p.lastErrLog)

	if elapsed >= errorLogCooldown {
		if p.suppressedErrs > 0 {
			p.log.Warnf("suppressed %d ingest errors in last %v", p.suppressedErrs, elapsed.Round(time.Second))
			p.suppressedErrs = 0
		}
		p.log.Errorf(format, args...)
		p.lastErrLog = now
	} else {
		p.suppressedErrs++
	}
}
