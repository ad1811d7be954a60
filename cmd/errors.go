package cmd

import (
	"errors"
	"strings"
)

// errorChain unwraps an error into printable lines, innermost cause first.
// Wrapping conventionally prefixes the cause's message, so each outer message
// has its cause's text trimmed off; wrappers that add nothing are dropped.
func errorChain(err error) []string {
	var chain []error
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e)
	}

	var lines []string
	for i := len(chain) - 1; i >= 0; i-- {
		msg := chain[i].Error()
		if i < len(chain)-1 {
			msg = strings.TrimSuffix(msg, chain[i+1].Error())
			msg = strings.TrimSuffix(msg, ": ")
			if msg == "" {
				continue
			}
		}
		lines = append(lines, msg)
	}

	return lines
}
