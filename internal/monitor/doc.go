// Package monitor correlates results with the requests that caused them.
//
// A Monitor lives on one queue. Each outstanding request gets a Handle; the
// handle completes exactly once, by a matching result, by timeout, or by
// Cancel, whichever happens first. Because all three happen as tasks on the
// same queue, the first one to run wins and the others become no-ops.
//
// A Dispatcher feeds incoming wire bytes into the monitor and routes
// everything the monitor does not claim (unsolicited results, notifies and
// requests) to handlers registered by key.
package monitor
