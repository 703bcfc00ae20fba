// Command call-functions scans query protein fasta files against a
// built signature index and writes one best function call per query
// sequence.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"kmersig"
	"kmersig/internal/parallel"
	"kmersig/kmerindex"
)

var (
	flagDataDir    = ""
	flagInputFiles = ""
	flagOutputFile = ""
	flagIgnoreHypo = false
	flagMinHits    = 5
	flagMaxGap     = 200
	flagNThreads   = runtime.NumCPU()
	flagQuiet      = false
)

func init() {
	log.SetFlags(0)

	flag.StringVar(&flagDataDir, "data-dir", flagDataDir,
		"Directory holding function.index and the kmers.mph/kmers.dat index pair.")
	flag.StringVar(&flagInputFiles, "input-files", flagInputFiles,
		"Comma-separated list of query protein fasta files.")
	flag.StringVar(&flagOutputFile, "output-file", flagOutputFile,
		"Output path for tab-separated calls (default: stdout).")
	flag.BoolVar(&flagIgnoreHypo, "ignore-hypo", flagIgnoreHypo,
		"Drop hits to \"hypothetical protein\" before chaining.")
	flag.IntVar(&flagMinHits, "min-hits", flagMinHits,
		"Minimum chained hit count for a call region.")
	flag.IntVar(&flagMaxGap, "max-gap", flagMaxGap,
		"Maximum residue gap between chained hits.")
	flag.IntVar(&flagNThreads, "n-threads", flagNThreads,
		"The maximum number of CPUs used for scanning and resolution.")
	flag.BoolVar(&flagQuiet, "quiet", flagQuiet,
		"When set, the only outputs will be errors echoed to stderr.")

	flag.Usage = usage
	flag.Parse()
}

func main() {
	if flag.NArg() != 0 {
		usage()
	}
	if !flagQuiet {
		kmersig.Verbose = true
	}
	if flagDataDir == "" || flagInputFiles == "" {
		fatalUsage("--data-dir and --input-files are required")
	}

	fm, err := kmersig.LoadFunctionIndex(filepath.Join(flagDataDir, "function.index"))
	if err != nil {
		fatalErr(err)
	}

	reader, err := kmerindex.Open(filepath.Join(flagDataDir, "kmers"))
	if err != nil {
		fatalErr(err)
	}
	defer reader.Close()

	out := os.Stdout
	if flagOutputFile != "" {
		f, err := os.Create(flagOutputFile)
		if err != nil {
			fatalErr(kmersig.IOError("creating %q: %s", flagOutputFile, err))
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	queue := parallel.NewOutputQueue(1024)
	done := make(chan struct{})
	go func() {
		queue.Drain(func(item interface{}) {
			fmt.Fprint(w, item.(string))
		})
		close(done)
	}()

	chainerCfg := kmersig.ChainerConfig{
		MinHits:            flagMinHits,
		MaxGap:             flagMaxGap,
		IgnoreHypothetical: flagIgnoreHypo,
		HypotheticalIndex:  fm.LookupIndex(kmersig.HypotheticalProtein),
	}
	resolver := kmersig.NewResolver(fm)

	files := splitNonEmpty(flagInputFiles)
	for _, path := range files {
		if err := callFile(path, reader, chainerCfg, resolver, queue); err != nil {
			fatalErr(err)
		}
	}

	queue.Close()
	<-done
}

// callFile parses one query fasta file sequentially (per spec.md
// section 4.9: "fasta parsing is sequential per stream") and fans the
// per-sequence scan/resolve work out across a worker pool.
func callFile(path string, reader *kmerindex.Reader, chainerCfg kmersig.ChainerConfig, resolver *kmersig.Resolver, queue *parallel.OutputQueue) error {
	f, err := os.Open(path)
	if err != nil {
		return kmersig.IOError("opening query fasta %q: %s", path, err)
	}
	defer f.Close()

	var records []kmersig.FastaRecord
	parser := kmersig.NewFastaParser()
	parser.OnDefSeq = func(id, defline string, seq []byte) {
		records = append(records, kmersig.FastaRecord{ID: id, Defline: defline, Seq: seq})
	}
	parser.OnError = func(err error, line int, id string) bool {
		kmersig.Vprintf("error parsing %s at line %d (id=%q): %s\n", path, line, id, err)
		return true
	}
	if err := parser.Parse(f); err != nil {
		return kmersig.IOError("reading query fasta %q: %s", path, err)
	}

	return parallel.Run(flagNThreads, len(records), func(i int) error {
		rec := records[i]
		hits := kmersig.ScanSequence(reader, rec.Seq)
		calls := kmersig.Chain(hits, len(rec.Seq), chainerCfg)
		call := resolver.Resolve(calls)
		queue.Push(formatCall(rec.ID, call, len(rec.Seq)))
		return nil
	})
}

func formatCall(id string, call kmersig.FunctionCall, seqLength int) string {
	function := call.Function
	if function == "" {
		function = "??"
	}
	idxStr := "?"
	if call.FunctionIndex != kmersig.Undefined {
		idxStr = fmt.Sprintf("%d", call.FunctionIndex)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%.4f\t%d\n", id, function, idxStr, call.Score, seqLength)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func usage() {
	fmt.Fprintf(os.Stderr, "\nUsage: %s [flags]\n", path.Base(os.Args[0]))
	kmersig.PrintFlagDefaults()
	os.Exit(1)
}

func fatalUsage(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}

func fatalErr(err error) {
	var ce *kmersig.ClassifiedError
	code := 2
	if errors.As(err, &ce) {
		switch ce.Class {
		case kmersig.ClassUsage, kmersig.ClassConfig:
			code = 1
		default:
			code = 2
		}
	}
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(code)
}
