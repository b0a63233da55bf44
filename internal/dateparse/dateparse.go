// Package dateparse normalizes free-form date input ("next friday", "in
// 3 days", or a bare RFC3339 string) to RFC3339 before it is stored as a
// Property{type=date} value or an Approval.date.
package dateparse

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Normalize parses a user-supplied date expression relative to now and
// returns its RFC3339 representation. Input already in RFC3339 form is
// round-tripped unchanged (parsed and re-formatted) rather than rejected,
// so callers never need to branch on input shape.
func Normalize(input string) (string, error) {
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.Format(time.RFC3339), nil
	}

	r, err := parser.Parse(input, time.Now())
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("could not understand date expression %q", input)
	}
	return r.Time.Format(time.RFC3339), nil
}
