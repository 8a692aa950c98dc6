// Package videohost is the HTTP adapter for the remote video service. It
// lists libraries and collections, registers and streams videos, and renders
// the embed markup for uploaded entries.
package videohost
