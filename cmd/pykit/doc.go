// Package main hosts the pykit CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the toolkit's subcommands: running
// scripts inside auto-provisioned environments, mirroring documentation
// sites, fetching galleries, splitting media, downloading videos, minting
// email aliases, serving files over HTTPS, and inspecting run history. It
// centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
