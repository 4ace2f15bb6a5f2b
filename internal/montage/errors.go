package montage

import "fmt"

// TransportError means the tool could not be run or wrote diagnostics to stderr
type TransportError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Stderr != "" && e.Err != nil:
		return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Stderr)
	case e.Stderr != "":
		return fmt.Sprintf("%s failed: %s", e.Tool, e.Stderr)
	default:
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ReportedError is a tool that ran to completion but returned stat=ERROR or stat=WARNING
type ReportedError struct {
	Tool    string
	Message string
	Warning bool
}

func (e *ReportedError) Error() string {
	if e.Warning {
		return "WARNING: " + e.Message
	}
	return "ERROR: " + e.Message
}
