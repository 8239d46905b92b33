// Package retention prunes stored receipts by age and by count.
//
// # Retention Policy
//
//   - RetentionDays deletes receipts older than the cutoff
//   - MaxReceipts keeps only the newest N receipts
//   - ArchiveBeforeDelete streams doomed receipts to a JSON file first
//   - PruneSchedule runs Prune on a cron schedule
//
// # Basic Usage
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 90,
//	    PruneSchedule: "0 3 * * *",
//	})
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
package retention
