// Package session runs presentation sessions: one dataset, from element
// graph through layout and staged reveal to idle floating.
//
// # Overview
//
// A [Lifecycle] owns the rendering surface and the layout adapter and keeps
// at most one session active. [Lifecycle.StartSession]:
//
//  1. stops the previous session: cancels its reveal timer, float tick and
//     settle timeout, destroys its layout handle and unmounts the surface;
//  2. builds the element graph (invalid input is returned to the caller and
//     no session starts);
//  3. mounts the graph with everything hidden, initializes the layout
//     adapter and arms the settle timeout;
//  4. on settle, drives the reveal scheduler to Floating and starts the
//     float animator.
//
// The returned [Handle] owns every cancellable resource of its session, so
// tearing a session down is a single call.
//
// # Concurrency
//
// Timer, settle and tick callbacks arrive on arbitrary goroutines. Each one
// is dispatched under the lifecycle's mutex and dropped unless its session
// is still the current one, so callbacks of two sessions never interleave
// and nothing fires after teardown. Teardown happens under the same mutex
// before any new timer or adapter is created.
//
// # Failure
//
// A session whose layout does not settle within [Options.SettleTimeout]
// fails with LAYOUT_TIMEOUT; an adapter error fails it with LAYOUT_FAILED.
// Both are reported on [Handle.Err] once [Handle.Done] is closed. A session
// replaced before reaching Floating ends with SESSION_SUPERSEDED.
//
// An empty dataset is valid: it produces an empty session that is idle and
// done immediately, and logs an EMPTY_DATASET warning.
package session
