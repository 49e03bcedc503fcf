// Package router parses the conversion instruction attached to incoming
// transfers and drives a trade across one or more converters before the
// proceeds reach the final recipient.
package router

import (
	"errors"
	"strings"
)

// MemoVersion tags the instruction format understood by this router.
const MemoVersion = "1"

var (
	// ErrMalformedPath indicates an instruction that cannot be decoded or a
	// path with too few elements for the expected hop.
	ErrMalformedPath = errors.New("router: bad path format")
	// ErrMemoVersion indicates an unsupported instruction version tag.
	ErrMemoVersion = errors.New("router: unsupported memo version")
)

// Memo is the decoded conversion instruction: an ordered path of
// (converter account, destination currency code) pairs, the minimum-return
// threshold as a decimal string, the final recipient, and a trailing note
// delivered only on the last hop.
//
// The wire form is comma-delimited: "1,<path>,<min return>,<recipient>,<note>"
// with the path elements separated by single spaces. The note is the raw
// remainder of the record and may itself contain commas.
type Memo struct {
	Version   string
	Path      []string
	MinReturn string
	Recipient string
	Note      string

	hasNote bool
}

// ParseMemo decodes an instruction string. Parsing is strict about field
// count and version but leaves the path length to the hop executor, which
// knows how many elements it needs.
func ParseMemo(raw string) (Memo, error) {
	parts := strings.SplitN(raw, ",", 5)
	if len(parts) < 4 {
		return Memo{}, ErrMalformedPath
	}
	memo := Memo{
		Version:   parts[0],
		MinReturn: parts[2],
		Recipient: parts[3],
	}
	if memo.Version != MemoVersion {
		return Memo{}, ErrMemoVersion
	}
	if path := strings.TrimSpace(parts[1]); path != "" {
		memo.Path = strings.Split(path, " ")
	}
	if len(parts) == 5 {
		memo.Note = parts[4]
		memo.hasNote = true
	}
	return memo, nil
}

// Encode rebuilds the wire form. Parsing followed by an immediate Encode
// reproduces the canonical instruction byte for byte.
func (m Memo) Encode() string {
	fields := []string{m.Version, strings.Join(m.Path, " "), m.MinReturn, m.Recipient}
	if m.hasNote {
		fields = append(fields, m.Note)
	}
	return strings.Join(fields, ",")
}

// Truncate drops the consumed hop: exactly the first two path elements. The
// remainder keeps its order and every other field is untouched.
func (m Memo) Truncate() (Memo, error) {
	if len(m.Path) < 2 {
		return Memo{}, ErrMalformedPath
	}
	next := m
	next.Path = append([]string(nil), m.Path[2:]...)
	return next, nil
}

// Final reports whether the path has been fully consumed.
func (m Memo) Final() bool {
	return len(m.Path) == 0
}
