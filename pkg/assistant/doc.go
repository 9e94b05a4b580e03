// Package assistant turns a dialogue into a dataset through a remote
// assistant run.
//
// # Exchange
//
// [Client.Exchange] performs the assistant round trip against an
// Assistants v2 compatible API:
//
//  1. create a thread;
//  2. post the dialogue as a user message;
//  3. start a run of the configured assistant;
//  4. poll the run every [Options.PollInterval] until it completes, fails
//     or [Options.Timeout] elapses;
//  5. read the latest assistant message and decode it as a dataset.
//
// A failed run is reported as INTERNAL_ERROR with the run's error details,
// a reply that is not a dataset as INVALID_FORMAT, and an exhausted
// timeout as TIMEOUT. Transient HTTP failures are retried.
//
// Replies are cached by assistant id and dialogue when [Options.Cache] is
// set, so replaying a dialogue does not start another run.
package assistant
