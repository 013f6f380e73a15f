package main

import (
	"bytes"
	"io"
	"strings"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// colorWriter highlights dump and recording lines by their leading word.
// Partial lines are held until their newline arrives.
type colorWriter struct {
	w       io.Writer
	pending []byte
}

func (c *colorWriter) Write(p []byte) (int, error) {
	c.pending = append(c.pending, p...)
	for {
		i := bytes.IndexByte(c.pending, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(c.pending[:i])
		c.pending = c.pending[i+1:]
		if _, err := io.WriteString(c.w, colorize(line)+"\n"); err != nil {
			return len(p), err
		}
	}
}

func colorize(line string) string {
	body := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(body)]
	word, _, _ := strings.Cut(body, " ")
	var code string
	switch word {
	case "program", "queue":
		code = ansiBold
	case "barrier":
		code = ansiYellow
	case "wait", "signal":
		code = ansiCyan
	case "violation:":
		code = ansiRed
	case "Code", "Subgraph", "Pass", "Subpass", "Blit", "Copy":
		return indent + ansiGreen + word + ansiReset + body[len(word):]
	default:
		return line
	}
	return indent + code + body + ansiReset
}
