// Package preflight verifies the host before pykit commands run: external
// binaries present, working directories reachable and writable.
package preflight
