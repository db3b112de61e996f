package transcode

import "fmt"

// DocumentError is a failure confined to one document.
type DocumentError struct {
	Source string
	Op     string
	Err    error
}

func (e *DocumentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *DocumentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
