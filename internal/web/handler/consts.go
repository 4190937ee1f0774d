// Package handler holds constants shared by the web handlers.
package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// ErrNilACFatalLogMsg is used if an app or cfg pointer is nil at Init.
	ErrNilACFatalLogMsg = "app or cfg is nil"
)
