package matrix

import (
	"fmt"
	"io"
	"strings"
)

// readFasta parses a FASTA alignment: each record is a ">name" header line
// followed by one or more sequence lines, concatenated until the next
// header or end of file.
func readFasta(r io.Reader) (*Alignment, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var names []string
	var rows [][]byte

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			names = append(names, strings.TrimSpace(line[1:]))
			rows = append(rows, nil)
			continue
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("sequence data before any %q header", ">")
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], []byte(line)...)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no FASTA records found")
	}
	m := len(rows[0])
	for i, row := range rows {
		if len(row) != m {
			return nil, fmt.Errorf("sequence %q has length %d, want %d (from %q)", names[i], len(row), m, names[0])
		}
	}

	return &Alignment{N: len(names), M: m, Titles: names, Rows: rows}, nil
}
