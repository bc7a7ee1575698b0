package pq

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/errors"
)

// LSN is a position in the write-ahead log. Its text form is two upper-case
// hex groups without padding, high 32 bits first: 0x016B2D50 is "0/16B2D50".
type LSN uint64

func (lsn LSN) String() string {
	return fmt.Sprintf("%X/%X", uint32(lsn>>32), uint32(lsn))
}

func (lsn LSN) MarshalText() ([]byte, error) {
	return []byte(lsn.String()), nil
}

func (lsn *LSN) UnmarshalText(text []byte) error {
	parsed, err := ParseLSN(string(text))
	if err != nil {
		return err
	}
	*lsn = parsed
	return nil
}

func ParseLSN(s string) (LSN, error) {
	upper, lower, ok := strings.Cut(s, "/")
	if !ok {
		return 0, errors.Newf("lsn parse: %q is not in hi/lo form", s)
	}

	upperHalf, err := strconv.ParseUint(upper, 16, 32)
	if err != nil {
		return 0, errors.Wrap(err, "lsn parse upper half")
	}

	lowerHalf, err := strconv.ParseUint(lower, 16, 32)
	if err != nil {
		return 0, errors.Wrap(err, "lsn parse lower half")
	}

	return LSN(upperHalf<<32 | lowerHalf), nil
}
