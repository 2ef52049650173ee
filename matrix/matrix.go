// Package matrix reads multiple sequence alignments in the handful of
// formats LVB's original reader understood (Clustal, MSF, PHYLIP,
// FASTA, NEXUS), dispatching on file extension the same way the
// reference implementation's read_file did.
package matrix

import (
	"bufio"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dchest/siphash"
	"github.com/klauspost/compress/gzip"
)

// Size limits Read enforces on an Alignment. MinN is one below the tree
// engine's own minimum of three objects: a two-row alignment is read and
// reports its dimensions, but is too small to build a tree from.
const (
	MinN = 2
	MaxN = 4096
	MinM = 1
	MaxM = 1 << 20
)

// nameLength is PHYLIP's fixed species-name column width.
const nameLength = 10

// acceptChars is the set of residue/state characters the reference reader
// accepts; it also doubles as the heuristic PHYLIP parsing uses to find
// where sequence data starts: the first line after the header whose last
// character is one of these.
const acceptChars = "ABCDEFGHIKLMNPQRSTVWXYZ*?-"

// Alignment is a parsed matrix: N named rows of M characters each.
type Alignment struct {
	N, M   int
	Titles []string // length N, each padded/trimmed the way PHYLIP names are
	Rows   [][]byte // length N, each of length M
}

// Read loads path, choosing a parser from its extension (transparently
// decompressing a trailing ".gz" first), and validates the resulting
// dimensions against the engine's size limits.
func Read(path string) (*Alignment, error) {
	r, err := openMaybeCompressed(path)
	if err != nil {
		return nil, fmt.Errorf("matrix: opening %s: %w", path, err)
	}
	defer r.Close()

	aln, err := dispatch(path, r)
	if err != nil {
		return nil, fmt.Errorf("matrix: reading %s: %w", path, err)
	}
	if err := aln.validate(); err != nil {
		return nil, fmt.Errorf("matrix: %s: %w", path, err)
	}
	warnDuplicateRows(aln)
	return aln, nil
}

// DimensionsIn reports N and M of the alignment at path. It reads and
// validates the whole file through Read and then discards the sequences.
func DimensionsIn(path string) (n, m int, err error) {
	aln, err := Read(path)
	if err != nil {
		return 0, 0, err
	}
	return aln.N, aln.M, nil
}

func (a *Alignment) validate() error {
	if a.N < MinN || a.N > MaxN {
		return fmt.Errorf("sequence count %d out of range [%d, %d]", a.N, MinN, MaxN)
	}
	if a.M < MinM || a.M > MaxM {
		return fmt.Errorf("sequence length %d out of range [%d, %d]", a.M, MinM, MaxM)
	}
	for i, row := range a.Rows {
		if len(row) != a.M {
			return fmt.Errorf("sequence %q has length %d, want %d", a.Titles[i], len(row), a.M)
		}
	}
	return nil
}

// warnDuplicateRows hashes each title+sequence pair with SipHash and warns
// on stderr if two rows collide, which is the cheapest signal available
// that a supposedly independent pair of taxa were accidentally duplicated
// in the source file.
func warnDuplicateRows(a *Alignment) {
	const k0, k1 = 0x6c7662, 0x6d617472 // arbitrary fixed keys: this is a content fingerprint, not a security hash
	seen := make(map[uint64]string, len(a.Rows))
	for i, row := range a.Rows {
		h := siphash.Hash(k0, k1, append([]byte(a.Titles[i]), row...))
		if prev, ok := seen[h]; ok {
			fmt.Fprintf(os.Stderr, "matrix: warning: %q and %q have identical name+sequence content\n", prev, a.Titles[i])
			continue
		}
		seen[h] = a.Titles[i]
	}
}

func openMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &gzipCloser{Reader: gz, under: f}, nil
	}
	if strings.HasSuffix(path, ".flate") {
		fr := flate.NewReader(f)
		return &flateCloser{ReadCloser: fr, under: f}, nil
	}
	return f, nil
}

type gzipCloser struct {
	*gzip.Reader
	under *os.File
}

func (g *gzipCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}

type flateCloser struct {
	io.ReadCloser
	under *os.File
}

func (f *flateCloser) Close() error {
	err := f.ReadCloser.Close()
	if cerr := f.under.Close(); err == nil {
		err = cerr
	}
	return err
}

// dispatch mirrors read_file's extension table, including the "infile"
// basename special case for bare PHYLIP files with no extension.
func dispatch(path string, r io.Reader) (*Alignment, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".flate")
	ext := strings.ToLower(filepath.Ext(base))

	switch {
	case ext == ".aln":
		return readClustal(r)
	case ext == ".msf":
		return readClustal(r)
	case ext == ".phy", ext == ".ph":
		return readPhylip(r)
	case base == "infile":
		return readPhylip(r)
	case ext == ".fas":
		return readFasta(r)
	case ext == ".nex":
		return readNexus(r)
	default:
		return nil, fmt.Errorf("unrecognised file extension %q", ext)
	}
}

func isAcceptChar(c byte) bool {
	return strings.IndexByte(acceptChars, upper(c)) >= 0
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// readLines slurps every line of r, blank ones included, trimming the
// trailing newline but not interior whitespace (several of the formats below are
// column-sensitive).
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func trimName(s string) string {
	return strings.TrimSpace(s)
}

// parseHeaderCounts parses a PHYLIP-style "<n> <m>" header line.
func parseHeaderCounts(line string) (n, m int, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("malformed dimensions header %q", line)
	}
	n, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed sequence count in %q: %w", line, err)
	}
	m, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed sequence length in %q: %w", line, err)
	}
	return n, m, nil
}
