package kmersig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"kmersig/internal/parallel"
)

// IndexReader is the read side of the on-disk signature index (C8),
// satisfied by *kmerindex.Reader. It is declared here, rather than by
// importing the kmerindex package directly, so the root package never
// depends on the lower-level on-disk-format package -- only
// cmd/*/main.go, which constructs a *kmerindex.Reader and passes it
// in, needs to know about both.
type IndexReader interface {
	Fetch(k Kmer, cb func(StoredKmerData)) error
}

// BuilderConfig holds the flags accepted by the build-signatures CLI
// binary (spec.md section 6).
type BuilderConfig struct {
	DefinitionDir         string
	FastaDir              string
	FastaKeepFunctionsDir string
	GoodFunctions         []string
	GoodRoles             []string
	DeletedFeaturesFile   string
	KmerDataDir           string
	MinRepsRequired       int
	NThreads              int

	// KeptFunctionsLog and DumpFunctionMap are supplemented
	// diagnostics per SPEC_FULL.md section 5.
	KeptFunctionsLog string
	DumpFunctionMap  string
}

// BuildResult summarizes a completed build for the final report
// spec.md section 7 requires ("kept-kmer count, distinct-signature
// count, and sequences-with-signature count"), and carries the kept
// k-mer set for the caller to hand to kmerindex.Build.
type BuildResult struct {
	KeptKmers         []KeptKmer
	KeptKmerCount     int
	DistinctFunctions int
	SeqsWithSignature int
}

// Builder drives the full build-signatures pipeline: ingest function
// definitions and training fasta (C3), extract attribute records (C5),
// and select signature k-mers (C6). Writing the on-disk index (C7) is
// left to the caller, which hands BuildResult.KeptKmers to
// kmerindex.Build.
type Builder struct {
	cfg BuilderConfig
	fm  *FunctionMap
}

// NewBuilder constructs a Builder from CLI configuration.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// loadDeletedFids reads a file of one protein id per line to exclude
// from function-map ingestion.
func loadDeletedFids(path string) (map[string]bool, error) {
	deleted := make(map[string]bool)
	if path == "" {
		return deleted, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, IOError("opening deleted features file %q: %s", path, err)
	}
	defer f.Close()

	buf := make([]byte, 0, 64*1024)
	scanner := newLineScanner(f, buf)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			deleted[line] = true
		}
	}
	return deleted, scanner.Err()
}

// Build runs the pipeline and writes function.index and
// distinct_functions under KmerDataDir. It does not write the
// kmers.{mph,dat} index pair; it returns the kept k-mer set and a
// summary for the caller to write and report.
func (b *Builder) Build() (*BuildResult, error) {
	deletedFids, err := loadDeletedFids(b.cfg.DeletedFeaturesFile)
	if err != nil {
		return nil, err
	}

	var keptLog io.Writer
	if b.cfg.KeptFunctionsLog != "" {
		f, err := os.Create(b.cfg.KeptFunctionsLog)
		if err != nil {
			return nil, IOError("creating %q: %s", b.cfg.KeptFunctionsLog, err)
		}
		defer f.Close()
		keptLog = f
	}

	fm := NewFunctionMap(keptLog)
	fm.AddGoodFunctions(b.cfg.GoodFunctions)
	fm.AddGoodRoles(b.cfg.GoodRoles)

	defFiles, err := globFiles(b.cfg.DefinitionDir)
	if err != nil {
		return nil, err
	}
	for _, f := range defFiles {
		if err := fm.LoadIDAssignments(f); err != nil {
			return nil, err
		}
	}

	fastaFiles, err := globFiles(b.cfg.FastaDir)
	if err != nil {
		return nil, err
	}
	keepFastaFiles, err := globFiles(b.cfg.FastaKeepFunctionsDir)
	if err != nil {
		return nil, err
	}
	keepSet := make(map[string]bool, len(keepFastaFiles))
	for _, f := range keepFastaFiles {
		keepSet[f] = true
	}
	allFasta := append(append([]string(nil), fastaFiles...), keepFastaFiles...)

	for _, f := range allFasta {
		if err := fm.LoadFastaFile(f, keepSet[f], deletedFids); err != nil {
			return nil, err
		}
	}

	fm.Qualify(b.cfg.MinRepsRequired)
	if !fm.HasHypotheticalProtein() {
		return nil, ConfigError("%q missing among kept functions", HypotheticalProtein)
	}
	b.fm = fm

	if b.cfg.DumpFunctionMap != "" {
		f, err := os.Create(b.cfg.DumpFunctionMap)
		if err != nil {
			return nil, IOError("creating %q: %s", b.cfg.DumpFunctionMap, err)
		}
		defer f.Close()
		if err := fm.Dump(f); err != nil {
			return nil, err
		}
	}

	collector := NewAttributeCollector()
	seqIDs := NewSeqIDMap()

	// Extraction is parallelized one task per input fasta file, per
	// spec.md section 4.9.
	bar := &ProgressBar{Label: "extracting", Total: uint64(len(allFasta))}
	var barMu sync.Mutex
	err = parallel.Run(b.cfg.NThreads, len(allFasta), func(i int) error {
		if err := b.extractFile(allFasta[i], fm, collector, seqIDs, deletedFids); err != nil {
			return err
		}
		bar.Increment()
		barMu.Lock()
		bar.ClearAndDisplay()
		barMu.Unlock()
		return nil
	})
	Vprint("\n")
	if err != nil {
		return nil, err
	}

	kept, stats := SelectAll(collector)

	if err := os.MkdirAll(b.cfg.KmerDataDir, 0777); err != nil {
		return nil, IOError("creating kmer data dir %q: %s", b.cfg.KmerDataDir, err)
	}

	if err := writeFunctionIndexFile(fm, filepath.Join(b.cfg.KmerDataDir, "function.index")); err != nil {
		return nil, err
	}
	if err := writeDistinctFunctions(fm, stats, filepath.Join(b.cfg.KmerDataDir, "distinct_functions")); err != nil {
		return nil, err
	}

	return &BuildResult{
		KeptKmers:         kept,
		KeptKmerCount:     len(kept),
		DistinctFunctions: len(stats.DistinctFunctions),
		SeqsWithSignature: len(stats.SeqsWithSignature),
	}, nil
}

// FunctionMap returns the function map built during Build, for
// callers (in particular cmd/build-signatures) that want to report on
// it after the fact.
func (b *Builder) FunctionMap() *FunctionMap { return b.fm }

func (b *Builder) extractFile(path string, fm *FunctionMap, collector *AttributeCollector, seqIDs *SeqIDMap, deletedFids map[string]bool) error {
	f, err := os.Open(path)
	if err != nil {
		return IOError("opening fasta file %q: %s", path, err)
	}
	defer f.Close()

	parser := NewFastaParser()
	parser.OnError = func(err error, line int, id string) bool {
		Vprintf("error extracting from %s at line %d (id=%q): %s\n", path, line, id, err)
		return true
	}
	parser.OnSeq = func(id string, seq []byte) {
		if deletedFids[id] {
			return
		}
		function := fm.LookupFunction(id)
		if function == "" {
			return
		}
		funcIdx := fm.LookupIndex(function)
		if funcIdx == Undefined {
			return
		}
		seqID := seqIDs.Lookup(id)
		collector.ExtractSequence(seq, funcIdx, seqID)
	}
	return parser.Parse(f)
}

func writeFunctionIndexFile(fm *FunctionMap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return IOError("creating %q: %s", path, err)
	}
	defer f.Close()
	return fm.WriteFunctionIndex(f)
}

// writeDistinctFunctions writes the distinct_functions file: one line
// per kept function with its final signature k-mer count, per
// spec.md section 6 and SPEC_FULL.md section 5.
func writeDistinctFunctions(fm *FunctionMap, stats *SelectorStats, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return IOError("creating %q: %s", path, err)
	}
	defer f.Close()

	for idx := FunctionIndex(0); int(idx) < fm.NumKeptFunctions(); idx++ {
		function := fm.LookupFunctionByIndex(idx)
		if function == "" {
			continue
		}
		count := stats.DistinctFunctions[idx]
		if _, err := fmt.Fprintf(f, "%d\t%s\t%d\n", idx, function, count); err != nil {
			return IOError("writing distinct_functions: %s", err)
		}
	}
	return nil
}
