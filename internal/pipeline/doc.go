// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package pipeline streams a schedule feed into pathway events.

A Processor reads newline-delimited JSON, optionally gzip-compressed, one
line at a time and runs each schedule record through the stages in order:

	decode -> filter -> dedup check -> transform -> publish -> dedup record

Memory use is bounded by the longest line, not by the feed. A bad line is
counted and skipped; it never stops the run. Only a broken stream fails a
run. A canceled or expired context ends it as partial, whether it fires
between lines, during a blocking read or while an event waits to publish.

# Usage

	proc, err := pipeline.NewProcessor(pipeline.Config{}, holder, store, publisher)
	if err != nil {
		return err
	}
	result := proc.Process(ctx, body, pipeline.RunOptions{
		RunID:    runID,
		FeedType: pipeline.FeedUpdate,
	})

# Statistics

Every Result carries per-run Statistics. The counters satisfy:

	schedulesProcessed = schedulesFiltered + duplicatesSkipped +
	                     eventsPublished + publishFailures

A dedup lookup failure is treated as "not seen", so the schedule is
published and the failure counted in dedupErrors. A publish failure leaves
the key unrecorded so the next run retries it.
*/
package pipeline
