// Package admin is the introspection HTTP API (§9 design note, ENGINE/ADMIN
// supplement): a handful of read-only endpoints over the same process-global
// state plugins already maintain (the throttle registry, the applied-mocks
// counters), grounded on the teacher's pkg/admin route-registration and
// writeJSON/writeError style but scoped down from its full workspace/mock
// management surface to what this proxy's core actually exposes.
package admin
