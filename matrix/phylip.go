package matrix

import (
	"fmt"
	"io"
	"strings"
)

// readPhylip parses both PHYLIP sequential and interleaved formats,
// auto-detecting which one r holds the same way the reference reader does:
// scan once to see whether sequence data is split into blocks separated by
// blank lines (interleaved) or continues unbroken after each row until the
// header's declared length is reached (sequential).
func readPhylip(r io.Reader) (*Alignment, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	interleaved, totalDataLines, hdr, err := classifyPhylip(lines)
	if err != nil {
		return nil, err
	}

	if interleaved {
		return readPhylipInterleaved(lines, hdr)
	}
	return readPhylipSequential(lines, hdr, totalDataLines)
}

type phylipHeader struct {
	n, m int
}

// classifyPhylip scans lines once, looking for the header counts and then
// deciding whether the data section is interleaved: a blank line appearing
// after sequence data has started, before the file ends, means later
// blocks continue the same taxa — i.e. interleaved. Plain sequential files
// never contain a blank line once data starts.
func classifyPhylip(lines []string) (interleaved bool, totalDataLines int, hdr phylipHeader, err error) {
	started := false
	sawBlankAfterStart := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			if started {
				sawBlankAfterStart = true
			}
			continue
		}
		if hdr.n == 0 && hdr.m == 0 {
			if n, m, herr := parseHeaderCounts(line); herr == nil {
				hdr = phylipHeader{n: n, m: m}
			}
			continue
		}
		if !started {
			if isAcceptChar(line[len(line)-1]) {
				started = true
				totalDataLines++
			}
			continue
		}
		totalDataLines++
	}
	if hdr.n == 0 {
		return false, 0, hdr, fmt.Errorf("no PHYLIP dimensions header found")
	}
	interleaved = sawBlankAfterStart || totalDataLines > hdr.n
	return interleaved, totalDataLines, hdr, nil
}

func readPhylipInterleaved(lines []string, hdr phylipHeader) (*Alignment, error) {
	names := make([]string, 0, hdr.n)
	seqs := make([][]byte, 0, hdr.n)
	started := false
	countLine := 0
	headerSeen := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !headerSeen {
			if _, _, herr := parseHeaderCounts(line); herr == nil {
				headerSeen = true
				continue
			}
		}
		if !started {
			if isAcceptChar(line[len(line)-1]) {
				started = true
			} else {
				continue
			}
		}

		if len(names) < hdr.n {
			if len(line) < nameLength {
				return nil, fmt.Errorf("line %q has fewer than %d characters", line, nameLength)
			}
			names = append(names, trimName(line[:nameLength]))
			seqs = append(seqs, cleanPhylipSeq(line[nameLength:]))
		} else {
			seqs[countLine] = append(seqs[countLine], cleanPhylipSeq(line)...)
			countLine++
			if countLine == hdr.n {
				countLine = 0
			}
		}
	}
	return finishPhylip(names, seqs, hdr)
}

// readPhylipSequential reads the non-interleaved form, where each
// sequence's full run of M characters appears (possibly wrapped across
// several lines) immediately after its name, before the next name line
// begins. Since M is already known from the header, a row is "done" the
// moment it reaches that length — a more robust boundary than counting
// lines, and needed regardless once a sequence's data is itself wrapped.
func readPhylipSequential(lines []string, hdr phylipHeader, _ int) (*Alignment, error) {
	names := make([]string, 0, hdr.n)
	seqs := make([][]byte, 0, hdr.n)
	started := false
	headerSeen := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !headerSeen {
			if _, _, herr := parseHeaderCounts(line); herr == nil {
				headerSeen = true
				continue
			}
		}
		if !started {
			if isAcceptChar(line[len(line)-1]) {
				started = true
			} else {
				continue
			}
		}

		if len(seqs) == 0 || len(seqs[len(seqs)-1]) >= hdr.m {
			if len(line) < nameLength {
				return nil, fmt.Errorf("line %q has fewer than %d characters", line, nameLength)
			}
			names = append(names, trimName(line[:nameLength]))
			seqs = append(seqs, cleanPhylipSeq(line[nameLength:]))
		} else {
			seqs[len(seqs)-1] = append(seqs[len(seqs)-1], cleanPhylipSeq(line)...)
		}
	}
	return finishPhylip(names, seqs, hdr)
}

func finishPhylip(names []string, seqs [][]byte, hdr phylipHeader) (*Alignment, error) {
	if len(names) != hdr.n {
		return nil, fmt.Errorf("read %d sequences, header declared %d", len(names), hdr.n)
	}
	for i, s := range seqs {
		if len(s) != hdr.m {
			return nil, fmt.Errorf("sequence %q has length %d, header declared %d", names[i], len(s), hdr.m)
		}
	}
	return &Alignment{N: hdr.n, M: hdr.m, Titles: names, Rows: seqs}, nil
}

// cleanPhylipSeq strips the digits and spaces PHYLIP tolerates as spacers
// within a data line.
func cleanPhylipSeq(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c == ' ' {
			continue
		}
		out = append(out, c)
	}
	return out
}
