// Package services defines the failure taxonomy shared by the upload
// pipeline. Errors are tagged with sentinel markers so callers can classify
// an item's fate without inspecting message text.
package services
