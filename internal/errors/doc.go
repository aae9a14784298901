// Package errors provides typed errors with exit codes for spawn-ctl.
//
// # Error Types
//
// SpawnError is the base error type that wraps an error with an exit code:
//
//	type SpawnError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess           = 0  // Success
//	ExitGeneralError      = 1  // General errors, invalid input
//	ExitNotFound          = 2  // Instance is not registered
//	ExitAlreadyExists     = 3  // Instance name is taken
//	ExitPortExhausted     = 4  // No free port block in the search window
//	ExitOperationFailed   = 5  // Engine or in-container operation failed
//	ExitConfigUnavailable = 6  // Agent config missing or unparsable
//	ExitEngineUnavailable = 7  // Container engine missing or not answering
//
// # Error Constructors
//
//	errors.NotFound("alice")
//	errors.PortExhausted(18789, 500)
//	errors.OperationFailed("container start", err)
//	errors.EngineUnavailable(err)
//
// Each code has a sentinel (ErrNotFound, ErrPortExhausted, ...) so callers
// can match with errors.Is regardless of message.
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
