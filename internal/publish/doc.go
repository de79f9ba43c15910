// Package publish hands due postings to a Publisher and records what happened.
//
// Runner.RunDue is the only place that moves postings out of pending during
// normal operation: a successful publish becomes MarkPosted plus a posted
// history record, anything else becomes MarkFailed plus a failed record.
// Failed postings stay failed until an operator reschedules them.
package publish
