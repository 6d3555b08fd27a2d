// Package audit records the per-plugin decisions the dispatcher makes for
// each request — skip, match, mutate — as a structured, append-only ledger.
// It is how §4.2's "log Skipped" requirement becomes externally observable:
// the dispatcher's slog output is for operators, audit is for tooling that
// wants to reconstruct exactly which plugin answered (or passed on) a given
// request after the fact.
//
// Adapted from the teacher's pkg/audit (a general HTTP audit log) narrowed
// to plugin-decision events only; the file/stdout/no-op logger split is
// kept as-is.
package audit
