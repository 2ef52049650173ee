// Command lvb drives the tree engine end to end: read an alignment, seed
// the RNG, build and canonicalise a starting topology, optionally apply a
// bounded number of random rearrangements, and print the result as
// Newick.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sys/cpu"
	"sigs.k8s.io/yaml"

	"github.com/lvb-project/lvb/bipart"
	"github.com/lvb-project/lvb/matrix"
	"github.com/lvb-project/lvb/rng"
	"github.com/lvb-project/lvb/tree"
)

var (
	dashseed    int
	dashsteps   int
	dashspr     bool
	dashprofile string
	dasho       string
	printDims   bool

	logger = log.New(os.Stderr, "", log.Lshortfile)
)

func init() {
	flag.CommandLine.Usage = printHelp

	flag.IntVar(&dashseed, "seed", 1, "RNG seed in [0, 900000000]")
	flag.IntVar(&dashsteps, "steps", 0, "number of random rearrangement steps to apply after the initial tree")
	flag.BoolVar(&dashspr, "spr", false, "use SPR instead of NNI for the rearrangement steps")
	flag.StringVar(&dashprofile, "profile", "", "YAML file whose nonzero seed overrides -seed (its n and m fields are read but not used)")
	flag.StringVar(&dasho, "o", "", "file for Newick output (default is stdout)")
	flag.BoolVar(&printDims, "dims", false, "print the matrix's N and M and exit, without building a tree")
}

// profile is the optional -profile document. A nonzero Seed replaces the
// -seed value; N and M are parsed but nothing reads them, so they neither
// override nor check the matrix's dimensions.
type profile struct {
	Seed int `json:"seed"`
	N    int `json:"n"`
	M    int `json:"m"`
}

func loadProfile(path string) (*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return &p, nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		exitf("expected exactly one matrix file argument")
	}

	if !cpu.X86.HasAVX2 {
		logger.Println("note: CPU has no AVX2; mutation loop will run at scalar speed")
	}

	seed := dashseed
	if dashprofile != "" {
		p, err := loadProfile(dashprofile)
		if err != nil {
			exit(err)
		}
		if p.Seed != 0 {
			seed = p.Seed
		}
	}

	aln, err := matrix.Read(flag.Arg(0))
	if err != nil {
		exit(err)
	}
	if printDims {
		fmt.Printf("N=%d M=%d\n", aln.N, aln.M)
		return
	}

	out := os.Stdout
	if dasho != "" {
		f, err := os.Create(dasho)
		if err != nil {
			exit(err)
		}
		defer f.Close()
		out = f
	}

	if err := run(aln, seed, out); err != nil {
		exit(err)
	}
}

// run builds the initial tree and applies the requested mutation steps. It
// recovers a single tree.FatalError boundary and turns it into a regular
// error, matching the teacher's "always report via a returned/propagated
// error at the outermost boundary" convention even though the engine
// itself reports structural problems by panicking.
func run(aln *matrix.Alignment, seed int, out *os.File) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*tree.FatalError); ok {
				err = fe
				return
			}
			panic(r)
		}
	}()

	r := rng.New(seed)
	t := tree.RandTree(r, aln.N, aln.M)

	cmp := bipart.New()
	scratch := tree.Alloc(aln.N, aln.M)
	for i := 0; i < dashsteps; i++ {
		if dashspr {
			tree.SPR(r, scratch, t)
		} else {
			tree.NNI(r, scratch, t)
		}
		if cmp.Equal(t, scratch) {
			logger.Printf("step %d: rearrangement produced an identical topology", i)
		}
		t, scratch = scratch, t
	}

	tree.Print(out, t, aln.Titles)
	return nil
}

func exitf(f string, args ...any) {
	exit(fmt.Errorf(f, args...))
}

func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func printHelp() {
	printOrderedHelp([]string{"seed", "steps", "spr", "profile", "o", "dims"})
}
