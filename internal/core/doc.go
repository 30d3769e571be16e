// Package core contains the essential patching components of the system.
//
// Subpackages:
//
//   - host: HTTP client for the mod host's control API
//   - logger: logging abstractions and configuration
//   - mediaguard: crash guard over the host's media-device surface
//   - registry: component registry queries and an in-memory implementation
//   - sched: scheduling fast path and debouncing
//   - syncpause: settings-sync pause window
//   - waiter: bounded-retry component availability waiter
package core
