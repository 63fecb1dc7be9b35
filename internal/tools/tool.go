package tools

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Outcome is the result of a text-producing adapter. Adapters never return
// errors across the tool boundary; a failure is carried in Err and rendered
// as readable text by String.
type Outcome struct {
	Text   string
	Err    error
	prefix string
}

func (o Outcome) Failed() bool { return o.Err != nil }

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s: %v", o.prefix, o.Err)
	}
	return o.Text
}

func failed(prefix string, err error) Outcome {
	return Outcome{Err: err, prefix: prefix}
}

// Truncate bounds s to max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// collapseWhitespace joins non-empty trimmed lines and phrases with single spaces.
func collapseWhitespace(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if p := strings.TrimSpace(phrase); p != "" {
				parts = append(parts, p)
			}
		}
	}
	return strings.Join(parts, " ")
}
