// Command build-signatures ingests labeled protein training data and
// writes a signature k-mer index: function.index, distinct_functions,
// and a kmers.mph/kmers.dat pair under --kmer-data-dir.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"kmersig"
	"kmersig/kmerindex"
)

var (
	flagDefinitionDir         = ""
	flagFastaDir              = ""
	flagFastaKeepFunctionsDir = ""
	flagGoodFunctions         = ""
	flagGoodRoles             = ""
	flagDeletedFeaturesFile   = ""
	flagKmerDataDir           = ""
	flagMinRepsRequired       = 3
	flagKeptFunctionsLog      = ""
	flagDumpFunctionMap       = ""
	flagNThreads              = runtime.NumCPU()
	flagQuiet                 = false
)

func init() {
	log.SetFlags(0)

	flag.StringVar(&flagDefinitionDir, "definition-dir", flagDefinitionDir,
		"Directory of tab-delimited (id, function) assignment files.")
	flag.StringVar(&flagFastaDir, "fasta-dir", flagFastaDir,
		"Directory of training protein fasta files.")
	flag.StringVar(&flagFastaKeepFunctionsDir, "fasta-keep-functions-dir", flagFastaKeepFunctionsDir,
		"Directory of training fasta files whose functions are\n"+
			"\tautomatically kept regardless of genome count.")
	flag.StringVar(&flagGoodFunctions, "good-functions", flagGoodFunctions,
		"Comma-separated list of functions to keep regardless of genome count.")
	flag.StringVar(&flagGoodRoles, "good-roles", flagGoodRoles,
		"Comma-separated list of roles that qualify any function containing them.")
	flag.StringVar(&flagDeletedFeaturesFile, "deleted-features-file", flagDeletedFeaturesFile,
		"File of one protein id per line to exclude from training.")
	flag.StringVar(&flagKmerDataDir, "kmer-data-dir", flagKmerDataDir,
		"Output directory for function.index, distinct_functions, and\n"+
			"\tthe kmers.mph/kmers.dat index pair.")
	flag.IntVar(&flagMinRepsRequired, "min-reps-required", flagMinRepsRequired,
		"Minimum distinct genome count for a function to qualify.")
	flag.StringVar(&flagKeptFunctionsLog, "kept-functions-log", flagKeptFunctionsLog,
		"When set, write a rationale trace of kept/rejected functions here.")
	flag.StringVar(&flagDumpFunctionMap, "dump-function-map", flagDumpFunctionMap,
		"When set, write a debug dump of the function map here.")
	flag.IntVar(&flagNThreads, "n-threads", flagNThreads,
		"The maximum number of CPUs used for extraction.")
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
	if flagFastaDir == "" || flagKmerDataDir == "" {
		fatalUsage("--fasta-dir and --kmer-data-dir are required")
	}

	cfg := kmersig.BuilderConfig{
		DefinitionDir:         flagDefinitionDir,
		FastaDir:              flagFastaDir,
		FastaKeepFunctionsDir: flagFastaKeepFunctionsDir,
		GoodFunctions:         splitNonEmpty(flagGoodFunctions),
		GoodRoles:             splitNonEmpty(flagGoodRoles),
		DeletedFeaturesFile:   flagDeletedFeaturesFile,
		KmerDataDir:           flagKmerDataDir,
		MinRepsRequired:       flagMinRepsRequired,
		NThreads:              flagNThreads,
		KeptFunctionsLog:      flagKeptFunctionsLog,
		DumpFunctionMap:       flagDumpFunctionMap,
	}

	builder := kmersig.NewBuilder(cfg)
	result, err := builder.Build()
	if err != nil {
		fatalErr(err)
	}

	basePath := filepath.Join(flagKmerDataDir, "kmers")
	if err := kmerindex.Build(basePath, result.KeptKmers); err != nil {
		fatalErr(err)
	}

	kmersig.Vprintf("kept %d signature kmers across %d functions (%d sequences carry a signature)\n",
		result.KeptKmerCount, result.DistinctFunctions, result.SeqsWithSignature)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
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

// fatalErr maps a returned error's ErrorClass to spec.md section 6's
// exit codes: 1 for usage/config problems, 2 for io/internal
// corruption.
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
