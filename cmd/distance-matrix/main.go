// Command distance-matrix computes all-pairs shared-signature-kmer
// counts and scores across a sequence collection.
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
	"kmersig/kmerindex"
)

var (
	flagDataDir    = ""
	flagInputFile  = ""
	flagOutputFile = ""
	flagMinHits    = 3
	flagNThreads   = runtime.NumCPU()
	flagQuiet      = false
)

func init() {
	log.SetFlags(0)

	flag.StringVar(&flagDataDir, "data-dir", flagDataDir,
		"Directory holding the kmers.mph/kmers.dat index pair.")
	flag.StringVar(&flagInputFile, "input-file", flagInputFile,
		"Fasta file of sequences to compare.")
	flag.StringVar(&flagOutputFile, "output-file", flagOutputFile,
		"Output path for tab-separated pairs (default: stdout).")
	flag.IntVar(&flagMinHits, "min-hits", flagMinHits,
		"Minimum shared signature-kmer count to emit a pair.")
	flag.IntVar(&flagNThreads, "n-threads", flagNThreads,
		"The maximum number of CPUs used for scanning.")
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
	if flagDataDir == "" || flagInputFile == "" {
		fatalUsage("--data-dir and --input-file are required")
	}

	reader, err := kmerindex.Open(filepath.Join(flagDataDir, "kmers"))
	if err != nil {
		fatalErr(err)
	}
	defer reader.Close()

	f, err := os.Open(flagInputFile)
	if err != nil {
		fatalErr(kmersig.IOError("opening %q: %s", flagInputFile, err))
	}
	records, err := kmersig.ReadFasta(f)
	f.Close()
	if err != nil {
		fatalErr(err)
	}

	ids := make([]string, len(records))
	seqs := make([][]byte, len(records))
	lengths := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
		seqs[i] = r.Seq
		lengths[i] = len(r.Seq)
	}

	out := os.Stdout
	if flagOutputFile != "" {
		of, err := os.Create(flagOutputFile)
		if err != nil {
			fatalErr(kmersig.IOError("creating %q: %s", flagOutputFile, err))
		}
		defer of.Close()
		out = of
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	cfg := kmersig.DistanceConfig{MinHits: flagMinHits, NThreads: flagNThreads}

	if len(seqs) > 500000 {
		kmersig.Vprintln("input exceeds 500k sequences, partitioning by Jenks natural breaks on length")
		for _, bucket := range kmersig.BucketSequencesByLength(lengths) {
			bucketSeqs := make([][]byte, len(bucket))
			for i, seqID := range bucket {
				bucketSeqs[i] = seqs[seqID]
			}
			pairs, err := kmersig.DistanceMatrix(reader, bucketSeqs, cfg)
			if err != nil {
				fatalErr(err)
			}
			writePairs(w, pairs, func(local uint32) string { return ids[bucket[local]] })
		}
		return
	}

	pairs, err := kmersig.DistanceMatrix(reader, seqs, cfg)
	if err != nil {
		fatalErr(err)
	}
	writePairs(w, pairs, func(local uint32) string { return ids[local] })
}

func writePairs(w *bufio.Writer, pairs []kmersig.DistancePair, name func(uint32) string) {
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6f\n", name(p.SeqA), name(p.SeqB), p.Count, p.Score)
	}
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
