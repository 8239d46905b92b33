package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tork-hq/governance/pkg/evidence"
)

// Config contains configuration for the receipt recorder.
type Config struct {
	// Enabled enables receipt persistence.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both enqueueing and each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// OnWrite, when set, is called after every storage write with its
	// error, nil on success.
	OnWrite func(err error)
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder hands receipts to a storage backend asynchronously so that
// governance calls never block on disk.
type Recorder struct {
	storage     evidence.Storage
	config      *Config
	receiptChan chan *evidence.Receipt
	wg          sync.WaitGroup
	done        chan struct{}
	closeOnce   sync.Once
	logger      *slog.Logger
}

// NewRecorder creates a new receipt recorder with the provided storage backend and configuration.
func NewRecorder(storage evidence.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		storage:     storage,
		config:      config,
		receiptChan: make(chan *evidence.Receipt, config.AsyncBuffer),
		done:        make(chan struct{}),
		logger:      slog.Default().With("component", "evidence.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("receipt recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a copy of receipt for async writing. It returns
// immediately unless the buffer is full, in which case it waits up to
// WriteTimeout before dropping the receipt.
func (r *Recorder) Record(ctx context.Context, receipt *evidence.Receipt) error {
	if !r.config.Enabled || receipt == nil {
		return nil
	}

	cp := *receipt

	select {
	case <-r.done:
		return evidence.NewRecorderError(cp.ReceiptID, context.Canceled)
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.receiptChan <- &cp:
		r.logger.Debug("receipt enqueued for writing",
			"receipt_id", cp.ReceiptID,
			"action", cp.Action,
		)
		return nil
	case <-timer.C:
		r.logger.Error("receipt channel full, dropping receipt",
			"receipt_id", cp.ReceiptID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return evidence.NewRecorderError(cp.ReceiptID, context.DeadlineExceeded)
	case <-ctx.Done():
		return evidence.NewRecorderError(cp.ReceiptID, ctx.Err())
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping receipt",
			"receipt_id", cp.ReceiptID,
		)
		return evidence.NewRecorderError(cp.ReceiptID, context.Canceled)
	}
}

// Close gracefully shuts down the recorder by draining the async channel and
// waiting for all pending writes to complete. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down receipt recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("receipt recorder shut down complete")
	})
	return nil
}

// worker drains the receipt channel and writes receipts to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case receipt := <-r.receiptChan:
			r.write(receipt)

		case <-r.done:
			r.logger.Info("draining receipt channel before shutdown",
				"pending_count", len(r.receiptChan),
			)
			for {
				select {
				case receipt := <-r.receiptChan:
					r.write(receipt)
				default:
					return
				}
			}
		}
	}
}

// write stores a single receipt.
func (r *Recorder) write(receipt *evidence.Receipt) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, receipt)
	if r.config.OnWrite != nil {
		r.config.OnWrite(err)
	}
	if err != nil {
		r.logger.Error("failed to store receipt",
			"receipt_id", receipt.ReceiptID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("receipt recorded",
		"receipt_id", receipt.ReceiptID,
		"action", receipt.Action,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow receipt write",
			"receipt_id", receipt.ReceiptID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
