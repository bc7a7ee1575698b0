package format

import (
	goerrors "errors"
	"fmt"
)

type ErrorKind uint8

const (
	// UnknownMessageType is not fatal: the record becomes an Unknown change.
	UnknownMessageType ErrorKind = iota + 1
	// UnknownRelation means a row message referenced a relation that was
	// never described on this stream.
	UnknownRelation
	// Malformed means a field was truncated or invalid; the rest of the
	// record cannot be trusted.
	Malformed
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownMessageType:
		return "unknown message type"
	case UnknownRelation:
		return "unknown relation"
	case Malformed:
		return "malformed message"
	default:
		return "decode error"
	}
}

var (
	ErrUnknownMessageType = goerrors.New(UnknownMessageType.String())
	ErrUnknownRelation    = goerrors.New(UnknownRelation.String())
	ErrMalformed          = goerrors.New(Malformed.String())
)

type DecodeError struct {
	Err        error
	RelationID uint32
	Kind       ErrorKind
	Tag        byte
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case UnknownMessageType:
		return fmt.Sprintf("%s: %q", e.Kind, rune(e.Tag))
	case UnknownRelation:
		return fmt.Sprintf("%s: %d", e.Kind, e.RelationID)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %q: %s", e.Kind, rune(e.Tag), e.Err.Error())
		}
		return fmt.Sprintf("%s %q", e.Kind, rune(e.Tag))
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind, so errors.Is(err, ErrMalformed)
// works through wrapping.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrUnknownMessageType:
		return e.Kind == UnknownMessageType
	case ErrUnknownRelation:
		return e.Kind == UnknownRelation
	case ErrMalformed:
		return e.Kind == Malformed
	}
	return false
}

func NewUnknownRelationError(relationID uint32) error {
	return &DecodeError{Kind: UnknownRelation, RelationID: relationID}
}

func malformed(tag byte, err error) error {
	return &DecodeError{Kind: Malformed, Tag: tag, Err: err}
}

// IsFatal reports whether err stops the stream. Only an unknown message type
// is tolerated.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var de *DecodeError
	if goerrors.As(err, &de) {
		return de.Kind != UnknownMessageType
	}
	return true
}

func tagOf(data []byte) byte {
	if len(data) == 0 {
		return 0
	}
	return data[0]
}
