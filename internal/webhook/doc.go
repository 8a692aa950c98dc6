// Package webhook exposes the embed-forwarding HTTP endpoint. External
// tooling posts video name and embed code pairs and the server relays them
// into the configured spreadsheet.
package webhook
