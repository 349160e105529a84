// Package provider defines the routable completion target: a named descriptor
// carrying exactly one call capability, either blocking or context-aware,
// tagged at construction. The descriptor treats the capability as opaque —
// authentication, serialization and transport belong to the capability, not
// to the routing core. HTTPClient is the capability used by the server
// binary; tests plug in plain functions.
package provider
