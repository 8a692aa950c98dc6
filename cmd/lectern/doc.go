// Package main hosts the lectern CLI entrypoint and command graph.
//
// The Cobra-based command tree classifies lecture video filenames, previews
// and runs upload batches against the video host, maintains the local library
// catalog, pushes embed codes into the spreadsheet, and serves the embed
// webhook. It centralizes configuration resolution and structured logging
// setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
