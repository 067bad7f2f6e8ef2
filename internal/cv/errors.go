package cv

import "fmt"

// CaptureError reports a failed screen capture. Stage is one of
// "transfer", "write" or "read".
type CaptureError struct {
	Stage string
	Path  string
	Err   error
}

func (e *CaptureError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("capture %s failed (%s): %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("capture %s failed: %v", e.Stage, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
