package model

import (
	"fmt"
	"strings"
)

// HeaderParseError is returned when a member header lacks a required tag or
// carries a value that cannot be interpreted.
type HeaderParseError struct {
	Key    string
	Header string
	Err    error
}

func (e *HeaderParseError) Error() string {
	h := e.Header
	if len(h) > 80 {
		h = h[:80] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("header parse error: bad %s in %q: %v", e.Key, h, e.Err)
	}
	return fmt.Sprintf("header parse error: missing %s in %q", e.Key, h)
}

func (e *HeaderParseError) Unwrap() error { return e.Err }

// AmbiguousPrefixError is returned when one member (or one strain list) would
// be attributed to more than one strain.
type AmbiguousPrefixError struct {
	Prefixes []string
	Member   string
}

func (e *AmbiguousPrefixError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("ambiguous locus prefix: %s listed more than once", strings.Join(e.Prefixes, ", "))
	}
	return fmt.Sprintf("ambiguous locus prefix: member %q matches strains %s", e.Member, strings.Join(e.Prefixes, " and "))
}
