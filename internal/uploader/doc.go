// Package uploader schedules queued files onto the video host. It classifies
// incoming filenames, walks the queue in lesson order under a concurrency
// ceiling, distinguishes deliberate pauses and cancellations from transfer
// failures, and reruns failed items on a fixed-delay retry loop.
package uploader
