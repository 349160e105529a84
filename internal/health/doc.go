// Package health tracks recent provider failures and gates routing on them.
//
// Each provider has a failure record keyed by its name. Two policies exist:
//
//   - single-timestamp (threshold 0): any failure makes the provider
//     ineligible for the full failure window
//   - threshold (threshold >= 1): the provider stays eligible until that
//     many failures accumulate inside the trailing window
//
// Usage:
//
//	tracker := health.NewTracker(time.Hour, 3)
//	if tracker.IsHealthy("openai") {
//	    // Make request...
//	    if err != nil {
//	        tracker.RecordFailure("openai")
//	    }
//	}
//
// Records are created on first touch and never removed; aged-out failure
// timestamps are pruned on write and by the Watch monitor. All operations
// are safe for concurrent use.
package health
