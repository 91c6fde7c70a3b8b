package goavi

import "fmt"

// Kind is the flat classification of every failure the library reports.
// A Kind is itself an error, so callers test for it with errors.Is.
type Kind uint8

// Error kinds.
const (
	ErrInvalidData Kind = iota + 1
	ErrOutOfMemory
	ErrRead
	ErrWrite
	ErrStackOverflow
	ErrUnsupported
	ErrCannotOpen
	ErrIncompatibleAudioStreams
	ErrInvalidSampleRate
	ErrInvalidStreamIndex
	ErrInvalidFrameIndex
	ErrInvalidImage
	ErrUnsupportedVideoFormat
	ErrUnsupportedAudioFormat
	ErrAudioBufferOverflow
)

// Error returns a short description of the kind.
func (k Kind) Error() string {
	switch k {
	case ErrInvalidData:
		return "invalid data"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrRead:
		return "read error"
	case ErrWrite:
		return "write error"
	case ErrStackOverflow:
		return "chunk stack too deep"
	case ErrUnsupported:
		return "unsupported feature"
	case ErrCannotOpen:
		return "cannot open file"
	case ErrIncompatibleAudioStreams:
		return "incompatible audio streams"
	case ErrInvalidSampleRate:
		return "invalid sample rate"
	case ErrInvalidStreamIndex:
		return "invalid stream index"
	case ErrInvalidFrameIndex:
		return "invalid frame index"
	case ErrInvalidImage:
		return "invalid image format"
	case ErrUnsupportedVideoFormat:
		return "unsupported video format"
	case ErrUnsupportedAudioFormat:
		return "unsupported audio format"
	case ErrAudioBufferOverflow:
		return "audio buffer overflow"
	}
	return "unknown error"
}

// Error carries a Kind together with the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("avi: %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("avi: %s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
