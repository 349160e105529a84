// Package dispatcher implements ordered fallback across completion providers.
//
// A Dispatcher owns a fixed priority-ordered provider list and a shared
// health tracker. Each request walks the list: unhealthy providers are
// skipped without being called, the first healthy provider is invoked, and
// any call failure is recorded against that provider before moving to the
// next candidate. The first successful response is returned as-is.
//
// Exhausting the list yields ErrAllProvidersUnavailable. Invoking a
// provider through the wrong entry point (Dispatch for blocking
// capabilities, DispatchContext for context-aware ones) yields
// ErrCapabilityMismatch without touching health state.
//
// Concurrent dispatches against one Dispatcher are safe and share health
// state; providers within a single dispatch are tried strictly in sequence.
package dispatcher
