package types

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrBlankLine is returned by Decode when given an empty or whitespace-only
// line.
var ErrBlankLine = errors.New("netchat: blank line")

// Encode serializes a Msg to a single newline-terminated JSON line. The
// codec is pure and stateless.
func Encode(m Msg) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "netchat: encoding message")
	}
	return string(data) + "\n", nil
}

// Decode parses a single JSON line into a Msg. Trailing newlines are
// tolerated; a blank line is reported via ErrBlankLine so callers can
// distinguish it from a malformed one if they wish.
func Decode(line string) (Msg, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return Msg{}, ErrBlankLine
	}
	var m Msg
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return Msg{}, errors.Wrap(err, "netchat: decoding wire line")
	}
	return m, nil
}
