// Package errors holds the command-line errors shared by every mode.
package errors

import "errors"

var (
	// ErrHelp is returned after --help printed the usage; it is not a failure.
	ErrHelp        = errors.New("")
	ErrModeFlag    = errors.New("mode flag is required")
	ErrUnknownMode = errors.New("unknown mode, write --help command to see valid modes")
)
