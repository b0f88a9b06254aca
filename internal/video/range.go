package video

import (
	"strconv"
	"strings"
)

type RangeKind int

const (
	// NoRange means no Range header was sent; serve the whole resource
	// with status 200.
	NoRange RangeKind = iota
	// Satisfiable carries a validated inclusive byte interval; serve a
	// 206 partial response.
	Satisfiable
	// Unsatisfiable means the header was understood but cannot be
	// honored; respond 416 with "Content-Range: bytes */<size>".
	Unsatisfiable
	// Malformed means the header does not match the single-range
	// byte-unit grammar. Callers treat it exactly like NoRange: loosely
	// conforming players keep working instead of getting an error.
	Malformed
)

// Resolution is the outcome of parsing a Range header against a known total
// size. Start and End are 0-indexed and inclusive, only meaningful when
// Kind is Satisfiable.
type Resolution struct {
	Kind  RangeKind
	Start int64
	End   int64
}

const bytesUnitPrefix = "bytes="

// ResolveRange parses a raw Range header value against totalSize.
//
// Only the single-range form "bytes=<start>-<end>?" is supported. <start>
// is required; a missing <end> means "through the last byte". An <end>
// past the last byte is clamped rather than rejected, since clients often
// send it as an upper hint. Multi-range requests ("bytes=0-10,20-30") fall
// into Malformed on the comma, which is deliberate: multipart byte-range
// framing is not implemented.
//
// The function is pure; it performs no I/O and holds no state.
func ResolveRange(header string, totalSize int64) Resolution {
	header = strings.TrimSpace(header)
	if header == "" {
		return Resolution{Kind: NoRange}
	}

	spec, ok := strings.CutPrefix(header, bytesUnitPrefix)
	if !ok {
		return Resolution{Kind: Malformed}
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || !isDigits(startStr) {
		return Resolution{Kind: Malformed}
	}
	if endStr != "" && !isDigits(endStr) {
		return Resolution{Kind: Malformed}
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Resolution{Kind: Malformed}
	}

	end := totalSize - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return Resolution{Kind: Malformed}
		}
	}

	if start >= totalSize {
		return Resolution{Kind: Unsatisfiable}
	}
	if end > totalSize-1 {
		end = totalSize - 1
	}
	if start > end {
		return Resolution{Kind: Unsatisfiable}
	}

	return Resolution{Kind: Satisfiable, Start: start, End: end}
}

// isDigits reports whether s is a non-empty run of ASCII digits. Rejecting
// everything else here is what catches multi-range lists, negative offsets
// and junk like "bytes=abc-".
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
