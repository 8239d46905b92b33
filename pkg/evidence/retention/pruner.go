package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/evidence/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain receipts.
	// 0 means keep receipts forever.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete enables archiving receipts before deletion.
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory to store archived receipts.
	ArchivePath string `yaml:"archive_path"`

	// MaxReceipts is the maximum number of receipts to keep.
	// 0 means unlimited.
	MaxReceipts int64 `yaml:"max_receipts"`

	// OnRun, when set, is called after every scheduled pruning run.
	OnRun func(deleted int64, err error) `yaml:"-"`
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       90,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: false,
		ArchivePath:         "data/archives/",
		MaxReceipts:         0,
	}
}

// Pruner enforces retention policies on stored receipts.
type Pruner struct {
	storage   evidence.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(storage evidence.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "evidence.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes receipts older than the retention period, then the oldest
// receipts beyond MaxReceipts. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.prune(ctx, &evidence.Query{EndTime: &cutoff}, "age")
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxReceipts > 0 {
		count, err := p.storage.Count(ctx, &evidence.Query{})
		if err != nil {
			return total, fmt.Errorf("failed to count receipts: %w", err)
		}
		if count > p.config.MaxReceipts {
			// Newest first, skip the ones we keep.
			q := &evidence.Query{
				SortBy:    "timestamp",
				SortOrder: "desc",
				Offset:    int(p.config.MaxReceipts),
			}
			deleted, err := p.prune(ctx, q, "count")
			if err != nil {
				return total, fmt.Errorf("prune by count failed: %w", err)
			}
			total += deleted
		}
	}

	if total == 0 {
		p.logger.Debug("no receipts pruned",
			"retention_days", p.config.RetentionDays,
			"max_receipts", p.config.MaxReceipts,
		)
	} else {
		p.logger.Info("receipt pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_receipts", p.config.MaxReceipts,
		)
	}
	return total, nil
}

func (p *Pruner) prune(ctx context.Context, q *evidence.Query, reason string) (int64, error) {
	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, q, reason); err != nil {
			return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
		}
	}

	deleted, err := p.storage.Delete(ctx, q)
	if err != nil {
		return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
	}
	p.logger.Info("pruned receipts", "reason", reason, "deleted_count", deleted)
	return deleted, nil
}

// archive streams the receipts about to be deleted into a JSON file.
func (p *Pruner) archive(ctx context.Context, q *evidence.Query, reason string) error {
	count, err := p.storage.Count(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to count receipts for archiving: %w", err)
	}
	count -= int64(q.Offset)
	if count <= 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("receipts-%s-%s.json", reason, p.now().UTC().Format("2006-01-02-150405"))
	path := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	receiptsCh, errCh, err := p.storage.QueryStream(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to query receipts for archiving: %w", err)
	}
	if err := export.NewJSONExporter(true).ExportStream(ctx, receiptsCh, f); err != nil {
		return fmt.Errorf("failed to export receipts to archive: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("failed to read receipts for archiving: %w", err)
	}

	p.logger.Info("receipts archived", "archive_file", path, "receipt_count", count)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
