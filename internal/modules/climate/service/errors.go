package service

import "fmt"

// ValidationError reports a request parameter that is not a YYYY-MM-DD date.
type ValidationError struct {
	Param string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s date %q (expected YYYY-MM-DD)", e.Param, e.Value)
}
