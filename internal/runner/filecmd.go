package runner

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/sekia-ai/actionkit/pkg/core"
)

const maxLineSize = 1 << 20

// KeyValue is one entry decoded from an ENV, OUTPUT or STATE file.
type KeyValue struct {
	Key   string
	Value string
}

// ParseFileCommands decodes heredoc blocks
//
//	key<<DELIMITER
//	value
//	DELIMITER
//
// and single line key=value entries. Values keep their inner line breaks
// as "\n".
func ParseFileCommands(r io.Reader) ([]KeyValue, error) {
	sc := newFileScanner(r)

	var entries []KeyValue
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := trimEOL(sc.Text())
		if line == "" {
			continue
		}

		heredocKey, delimiter, isHeredoc := strings.Cut(line, "<<")
		eqKey, eqValue, isPair := strings.Cut(line, "=")

		// Whichever separator comes first wins, as on the runner.
		if isHeredoc && (!isPair || len(heredocKey) < len(eqKey)) {
			if heredocKey == "" || delimiter == "" {
				return nil, fmt.Errorf("line %d: invalid heredoc header %q", lineNo, line)
			}
			start := lineNo
			var value []string
			closed := false
			for sc.Scan() {
				lineNo++
				l := trimEOL(sc.Text())
				if l == delimiter {
					closed = true
					break
				}
				value = append(value, l)
			}
			if !closed {
				return nil, fmt.Errorf("line %d: matching delimiter %q not found", start, delimiter)
			}
			entries = append(entries, KeyValue{Key: heredocKey, Value: strings.Join(value, "\n")})
			continue
		}

		if isPair && eqKey != "" {
			entries = append(entries, KeyValue{Key: eqKey, Value: eqValue})
			continue
		}
		return nil, fmt.Errorf("line %d: invalid format %q", lineNo, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read file command: %w", err)
	}
	return entries, nil
}

// ParsePathFile returns the non-empty lines of a PATH file in order.
func ParsePathFile(r io.Reader) ([]string, error) {
	sc := newFileScanner(r)
	var paths []string
	for sc.Scan() {
		if p := strings.TrimSpace(sc.Text()); p != "" {
			paths = append(paths, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read path file: %w", err)
	}
	return paths, nil
}

// trimEOL drops the carriage return left by the scanner when lines end in
// "\r\n" on this platform. Elsewhere a "\r" is part of the value.
func trimEOL(line string) string {
	if core.EOL == "\r\n" {
		return strings.TrimSuffix(line, "\r")
	}
	return line
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

// newFileScanner splits on "\n" only. bufio.ScanLines would also drop a
// "\r" that belongs to the value.
func newFileScanner(r io.Reader) *bufio.Scanner {
	sc := newLineScanner(r)
	sc.Split(scanLF)
	return sc
}

func scanLF(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
