package matrix

import (
	"fmt"
	"io"
	"strings"
)

// readNexus parses the minimal subset of NEXUS this reader needs: a
// "dimensions ntax=.. nchar=..;" declaration (either field order) followed
// eventually by a "matrix" block of "<name> <sequence>" lines running
// until the closing ";", reading one name+sequence row per line until
// ntax rows are seen, then treating every further line (up to the next
// ntax of them) as a continuation chunk for the next interleaved block.
func readNexus(r io.Reader) (*Alignment, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var n, m int
	inMatrix := false
	haveNames := false
	var names []string
	var rows [][]byte
	countLine := 0

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if strings.Contains(lower, "dimensions") {
			n, m = parseNexusDimensions(lower)
			if n == 0 || m == 0 {
				return nil, fmt.Errorf("could not parse NEXUS dimensions from %q", line)
			}
			continue
		}
		if strings.Contains(lower, "matrix") {
			inMatrix = true
			continue
		}
		if !inMatrix {
			continue
		}
		if strings.Contains(line, ";") {
			inMatrix = false
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if !haveNames {
			if len(fields) > 1 {
				names = append(names, fields[0])
				rows = append(rows, []byte(strings.Join(fields[1:], "")))
			}
			if len(names) == n {
				haveNames = true
			}
			continue
		}
		if countLine >= len(rows) {
			return nil, fmt.Errorf("more data lines than declared taxa (%d)", n)
		}
		rows[countLine] = append(rows[countLine], []byte(strings.Join(fields, ""))...)
		countLine++
		if countLine == n {
			countLine = 0
		}
	}

	if n == 0 {
		return nil, fmt.Errorf("no NEXUS dimensions declaration found")
	}
	if len(names) != n {
		return nil, fmt.Errorf("read %d taxa, dimensions declared %d", len(names), n)
	}
	for i, row := range rows {
		if len(row) != m {
			return nil, fmt.Errorf("sequence %q has length %d, dimensions declared %d", names[i], len(row), m)
		}
	}

	return &Alignment{N: n, M: m, Titles: names, Rows: rows}, nil
}

// parseNexusDimensions accepts either field order, "ntax=.. nchar=.."
// or "nchar=.. ntax=..".
func parseNexusDimensions(line string) (ntax, nchar int) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == ';' || r == '\t'
	})
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "ntax="):
			fmt.Sscanf(strings.TrimPrefix(f, "ntax="), "%d", &ntax)
		case strings.HasPrefix(f, "nchar="):
			fmt.Sscanf(strings.TrimPrefix(f, "nchar="), "%d", &nchar)
		}
	}
	return ntax, nchar
}
