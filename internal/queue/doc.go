// Package queue defines the upload queue item model, its status machine,
// and the in-memory store shared between the scheduler (sole mutator) and
// read-only projections. Queue state is deliberately not persisted across
// runs.
package queue
