// Package schedule plans postings over a horizon of calendar days.
//
// For every day, destination and slot the Scheduler picks one catalog item
// under the day's theme and the content-type mix, skipping items inside the
// lookback window or already pending for the destination. The chosen item is
// routed, spread across its duplicate group and enqueued. Slots without
// content become shortfalls in the run Summary; only persistence and history
// failures abort a run.
package schedule
