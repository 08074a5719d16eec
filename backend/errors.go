package backend

import "fmt"

// ParseError reports a configuration file that exists but cannot be used.
// It is fatal at startup: fixing the file requires user action, so the
// resolver never retries or falls back.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config file %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("config file %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingCredentialError reports that the hosted backend was selected but the
// credential is empty after trimming whitespace. Silently falling back to
// local inference would run against a different backend than the user asked
// for, so this is fatal.
type MissingCredentialError struct {
	Key string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("hosted API backend selected but %s is blank; set a non-empty API key or unset it to use local inference", e.Key)
}
