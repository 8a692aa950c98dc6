// Package catalog persists the remote library listing in a local sqlite
// cache, including the library-scoped API keys other components need to
// authenticate per-library requests.
package catalog
