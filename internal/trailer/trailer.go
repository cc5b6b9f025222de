// Package trailer encodes and decodes the rewrite-group marker embedded
// in a commit message's trailer block.
//
// A trailer block is the trailing paragraph of a commit message when every
// line in it has the shape "Key: Value". The rewrite-group marker is one
// such line with a reserved key; it associates a commit with the logical
// task that produced it so a later run of the same task can recognize its
// own previous commit and replace it rather than stack a new one.
package trailer

import (
	"fmt"
	"strings"

	recommiterrors "recommit.dev/recommit/internal/errors"
)

// DefaultKey is the reserved trailer key carrying the rewrite-group id.
const DefaultKey = "X-Commit-Rewrite-ID"

// Codec encodes and decodes trailer lines for a fixed reserved key.
type Codec struct {
	key string
}

// NewCodec creates a Codec for the given reserved key.
// An empty key selects DefaultKey.
func NewCodec(key string) *Codec {
	if key == "" {
		key = DefaultKey
	}
	return &Codec{key: key}
}

// Key returns the reserved trailer key this codec operates on.
func (c *Codec) Key() string {
	return c.key
}

// ValidateGroupID checks that a rewrite-group id can be embedded in a
// trailer line: non-empty and free of line delimiters.
func ValidateGroupID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: rewrite-group id must not be empty", recommiterrors.ErrInvalidInput)
	}
	if strings.ContainsAny(id, "\r\n") {
		return fmt.Errorf("%w: rewrite-group id must not contain newlines", recommiterrors.ErrInvalidInput)
	}
	return nil
}

// Encode appends the rewrite-group trailer to baseMessage.
//
// If the message already ends with a trailer block, the line is inserted
// into that block; otherwise a blank line separates the new block from the
// body. Encoding is idempotent: if the block already carries a line for
// the reserved key, that line is replaced instead of duplicated.
func (c *Codec) Encode(groupID, baseMessage string) (string, error) {
	if err := ValidateGroupID(groupID); err != nil {
		return "", err
	}

	line := c.key + ": " + groupID
	body, block := splitTrailerBlock(baseMessage)

	if block == nil {
		msg := strings.TrimRight(baseMessage, "\n")
		if msg == "" {
			return line + "\n", nil
		}
		return msg + "\n\n" + line + "\n", nil
	}

	// Replace an existing reserved-key line, or append to the block.
	replaced := false
	for i, l := range block {
		if key, _, ok := parseTrailerLine(l); ok && key == c.key {
			block[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		block = append(block, line)
	}

	if body == "" {
		return strings.Join(block, "\n") + "\n", nil
	}
	return body + "\n\n" + strings.Join(block, "\n") + "\n", nil
}

// Decode extracts the rewrite-group id from the message's trailer block.
// It returns ok=false when the message has no trailer block or the block
// has no line for the reserved key.
//
// When the block contains multiple lines for the reserved key, the first
// one wins. Duplicated reserved keys are not produced by Encode; this is
// a tie-break for messages written by other tools, not a guarantee.
func (c *Codec) Decode(message string) (string, bool) {
	_, block := splitTrailerBlock(message)
	for _, l := range block {
		if key, value, ok := parseTrailerLine(l); ok && key == c.key {
			return value, true
		}
	}
	return "", false
}

// splitTrailerBlock splits a commit message into its body and trailing
// trailer block. The block is the final paragraph if and only if every
// line in it parses as "Key: Value"; otherwise the whole message is body
// and the returned block is nil.
func splitTrailerBlock(message string) (body string, block []string) {
	msg := strings.TrimRight(message, "\n")
	if msg == "" {
		return "", nil
	}

	lines := strings.Split(msg, "\n")

	// Find the start of the final paragraph.
	start := 0
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			start = i + 1
			break
		}
	}

	para := lines[start:]
	if len(para) == 0 {
		return msg, nil
	}
	for _, l := range para {
		if _, _, ok := parseTrailerLine(l); !ok {
			return msg, nil
		}
	}

	// A message that is nothing but a trailer block has no body to keep:
	// the subject line is the first trailer. Treat a single-paragraph
	// message as body unless it follows a blank separator, matching how
	// git itself refuses to see a subject-only message as trailers.
	if start == 0 {
		return msg, nil
	}

	body = strings.TrimRight(strings.Join(lines[:start-1], "\n"), "\n")
	return body, para
}

// parseTrailerLine parses a single "Key: Value" trailer line. The key must
// be non-empty and contain neither spaces nor colons; the value must be
// non-empty after trimming.
func parseTrailerLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = line[:idx]
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	value = strings.TrimSpace(line[idx+1:])
	if value == "" {
		return "", "", false
	}
	return key, value, true
}
