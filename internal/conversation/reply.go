package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Data block errors.
var (
	ErrNoDataBlock        = errors.New("reply has no data block")
	ErrMalformedDataBlock = errors.New("reply data block is malformed")
)

// dataBlockPattern matches a fenced json block. Only the first one counts.
var dataBlockPattern = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// ParseReply splits a raw producer reply into visible text and the embedded
// extraction. The visible text has every data block removed and is trimmed.
// When the reply has no block, or its first block is not a JSON object, the
// visible text is still returned alongside ErrNoDataBlock or
// ErrMalformedDataBlock.
func ParseReply(raw string) (string, *Extraction, error) {
	visible := StripDataBlocks(raw)

	m := dataBlockPattern.FindStringSubmatch(raw)
	if m == nil {
		return visible, nil, ErrNoDataBlock
	}

	block := strings.TrimSpace(m[1])
	if !strings.HasPrefix(block, "{") {
		return visible, nil, fmt.Errorf("%w: not a json object", ErrMalformedDataBlock)
	}

	var ext Extraction
	if err := json.Unmarshal([]byte(block), &ext); err != nil {
		return visible, nil, fmt.Errorf("%w: %w", ErrMalformedDataBlock, err)
	}
	return visible, &ext, nil
}

// StripDataBlocks removes every fenced json block from s.
func StripDataBlocks(s string) string {
	return strings.TrimSpace(dataBlockPattern.ReplaceAllString(s, ""))
}
