// Package notifications delivers upload lifecycle events through ntfy. When
// no topic is configured a noop service keeps callers unconditional.
package notifications
