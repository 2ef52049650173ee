package matrix

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadFasta(t *testing.T) {
	content := ">one\nACGT\nACGT\n>two\nTTTTAAAA\n>three\nGGGGCCCC\n"
	path := writeTemp(t, "test.fas", content)

	aln, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if aln.N != 3 || aln.M != 8 {
		t.Fatalf("N=%d M=%d, want 3,8", aln.N, aln.M)
	}
	if aln.Titles[0] != "one" || string(aln.Rows[0]) != "ACGTACGT" {
		t.Errorf("row 0 = %q %q", aln.Titles[0], aln.Rows[0])
	}
}

func TestReadPhylipSequential(t *testing.T) {
	content := " 3 10\n" +
		"Turkey    AAGCTNGGGC\n" +
		"Salmogair ACGCCTTGGC\n" +
		"HSapiens  ACCGGTTGGC\n"
	path := writeTemp(t, "test.phy", content)

	aln, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if aln.N != 3 || aln.M != 10 {
		t.Fatalf("N=%d M=%d, want 3,10", aln.N, aln.M)
	}
	if aln.Titles[0] != "Turkey" {
		t.Errorf("title 0 = %q, want Turkey", aln.Titles[0])
	}
}

func TestReadPhylipInterleaved(t *testing.T) {
	content := "5    42\n" +
		"Turkey    AAGCTNGGGCATTTCAGGGT\n" +
		"Salmogair AAGCCTTGGCAGTGCAGGGT\n" +
		"HSapiens  ACCGGTTGGCCGTTCAGGGT\n" +
		"Chimp     AAACCCTTGCCGTTACGCTT\n" +
		"Gorilla   AAACCCTTGCCGGTACGCTT\n" +
		"\n" +
		"GAGCCCGGGCAATACAGGGTAT\n" +
		"GAGCCGTGGCCGGGCACGGTAT\n" +
		"ACAGGTTGGCCGTTCAGGGTAA\n" +
		"AAACCGAGGCCGGGACACTCAT\n" +
		"AAACCATTGCCGGTACGCTTAA\n"
	path := writeTemp(t, "test2.phy", content)

	aln, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if aln.N != 5 {
		t.Fatalf("N=%d, want 5", aln.N)
	}
	if aln.M != 42 {
		t.Fatalf("M=%d, want 42", aln.M)
	}
	if aln.Titles[0] != "Turkey" {
		t.Errorf("title 0 = %q, want Turkey", aln.Titles[0])
	}
}

func TestReadClustal(t *testing.T) {
	content := "CLUSTAL W (1.83) multiple sequence alignment\n\n" +
		"seq1       AAGCTTGGGC\n" +
		"seq2       AAGCTTGGGA\n\n" +
		"seq1       ATTTCAGGGT\n" +
		"seq2       ATTTCAGGGA\n"
	path := writeTemp(t, "test.aln", content)

	aln, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if aln.N != 2 || aln.M != 20 {
		t.Fatalf("N=%d M=%d, want 2,20", aln.N, aln.M)
	}
}

func TestReadNexus(t *testing.T) {
	content := "#NEXUS\n" +
		"begin data;\n" +
		"dimensions ntax=2 nchar=8;\n" +
		"matrix\n" +
		"seq1 ACGTACGT\n" +
		"seq2 ACGTACGA\n" +
		";\n" +
		"end;\n"
	path := writeTemp(t, "test.nex", content)

	aln, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if aln.N != 2 || aln.M != 8 {
		t.Fatalf("N=%d M=%d, want 2,8", aln.N, aln.M)
	}
}

func TestUnrecognisedExtensionFails(t *testing.T) {
	path := writeTemp(t, "test.xyz", "anything")
	if _, err := Read(path); err == nil {
		t.Errorf("expected an error for an unrecognised extension")
	}
}

func TestDimensionsIn(t *testing.T) {
	content := ">one\nACGT\n>two\nTTTT\n"
	path := writeTemp(t, "dims.fas", content)

	n, m, err := DimensionsIn(path)
	if err != nil {
		t.Fatalf("DimensionsIn: %v", err)
	}
	if n != 2 || m != 4 {
		t.Fatalf("n=%d m=%d, want 2,4", n, m)
	}
}

func TestInfileBasenameIsPhylip(t *testing.T) {
	content := " 3 4\nAAA       ACGT\nBBB       ACGA\nCCC       ACGG\n"
	path := writeTemp(t, "infile", content)

	aln, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if aln.N != 3 {
		t.Fatalf("N=%d, want 3", aln.N)
	}
}
