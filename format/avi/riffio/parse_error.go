package riffio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ugparu/goavi"
)

// ParseError records which field of which chunk ran out of bytes. Errors chain
// from the innermost field outwards and always unwrap to goavi.ErrInvalidData.
type ParseError struct {
	Debug  string
	Offset int64
	prev   *ParseError
}

func (p *ParseError) Error() string {
	s := []string{}
	for err := p; err != nil; err = err.prev {
		s = append(s, fmt.Sprintf("%s:%d", err.Debug, err.Offset))
	}
	return "riffio: parse error: " + strings.Join(s, ",")
}

func (p *ParseError) Unwrap() error {
	return goavi.ErrInvalidData
}

func parseErr(debug string, offset int64, prev error) error {
	var ppe *ParseError
	if prev != nil && !errors.As(prev, &ppe) {
		return prev
	}
	return &ParseError{Debug: debug, Offset: offset, prev: ppe}
}
