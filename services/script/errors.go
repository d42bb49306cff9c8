package script

import "fmt"

// EmptyResponseError means the backend returned no candidate content.
type EmptyResponseError struct {
	Reason string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("empty generator response: %s", e.Reason)
}

// MalformedResponseError means the returned text is not parseable as a
// list of line objects.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed generator response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// NotAListError means parsing succeeded but the top-level shape is not an
// ordered sequence.
type NotAListError struct {
	Raw string
}

func (e *NotAListError) Error() string {
	return "generator response is not a list"
}
