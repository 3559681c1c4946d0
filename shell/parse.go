// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"fmt"
	"strings"
)

// Parse splits one input line into tokens. Tokens are separated by
// unquoted whitespace; single quotes protect everything up to the
// closing quote, double quotes protect whitespace but allow backslash
// escapes, and an unquoted backslash escapes the next character.
func Parse(line string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			flush()
			i++

		case c == '\'':
			inToken = true
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated single quote")
			}
			current.WriteString(line[i+1 : i+1+end])
			i += end + 2

		case c == '"':
			inToken = true
			i++
			closed := false
			for i < len(line) {
				if line[i] == '"' {
					closed = true
					i++
					break
				}
				if line[i] == '\\' {
					if i+1 >= len(line) {
						return nil, fmt.Errorf("trailing backslash inside double quotes")
					}
					i++
				}
				current.WriteByte(line[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated double quote")
			}

		case c == '\\':
			if i+1 >= len(line) {
				return nil, fmt.Errorf("trailing backslash")
			}
			inToken = true
			current.WriteByte(line[i+1])
			i += 2

		default:
			inToken = true
			current.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens, nil
}
