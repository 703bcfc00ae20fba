package kmersig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Regexes grounded on original_source/src/seed_utils.h.
var (
	genomeTrailerRegexp = regexp.MustCompile(`\s+(.*)\s+\[([^]]+)\]$`)
	figIDRegexp         = regexp.MustCompile(`fig\|(\d+\.\d+)`)
	genomeIDRegexp      = regexp.MustCompile(`^\d+\.\d+$`)
	splitFunctionRegexp = regexp.MustCompile(`\s+[/@]\s+|\s*;\s+`)
	// funcCommentSplitRegexp mirrors split_func_comment_regex's
	// optional trailing group: a run of '#' only introduces a comment
	// when preceded and followed by whitespace.
	funcCommentSplitRegexp = regexp.MustCompile(`\s+(\#+)\s+`)
)

var fragCommentPrefixes = []string{"frag", "missing", "trunc"}

// isTruncatedComment reports whether a stripped-comment string marks
// the protein as truncated, per seed_utils::is_truncated_comment.
func isTruncatedComment(comment string) bool {
	for _, p := range fragCommentPrefixes {
		if strings.HasPrefix(comment, p) {
			return true
		}
	}
	return false
}

// splitFuncComment splits "func # comment" into (func, "#", comment),
// or returns (str, "", "") if there is no "# comment" trailer. A '#'
// run only counts as a trailer when surrounded by whitespace on both
// sides, per seed_utils::split_func_comment.
func splitFuncComment(s string) (function, delim, comment string) {
	loc := funcCommentSplitRegexp.FindStringSubmatchIndex(s)
	if loc == nil {
		return strings.TrimSpace(s), "", ""
	}
	return s[:loc[0]], s[loc[2]:loc[3]], strings.TrimSpace(s[loc[1]:])
}

// rolesOfFunction splits a function string on '/'/'@'/';' separators
// (each with surrounding whitespace), per seed_utils::roles_of_function.
func rolesOfFunction(function string) []string {
	stripped, _, _ := splitFuncComment(function)
	parts := splitFunctionRegexp.Split(stripped, -1)
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// FunctionMap manages the id-to-function mapping and the function to
// genome-set mapping used to decide which functions qualify for
// signature building. Grounded on function_map.h.
type FunctionMap struct {
	functionGenomes map[string]map[string]bool
	idFunction      map[string]string
	functionIndex   map[string]FunctionIndex
	indexFunction   map[FunctionIndex]string

	goodRoles     map[string]bool
	goodFunctions map[string]bool

	// originalAssignment/originalAssignmentStripped retain the
	// pre-strip, comment-inclusive assignment per id, per
	// SPEC_FULL.md section 5 ("original-assignment retention").
	originalAssignment         map[string]string
	originalAssignmentStripped map[string]string

	// keptLog, if non-nil, receives the qualification rationale
	// trace equivalent to function_map.h's kept_function_stream_.
	keptLog io.Writer
}

// NewFunctionMap returns an empty FunctionMap. If keptLog is non-nil,
// Qualify writes a human-readable rationale trace to it.
func NewFunctionMap(keptLog io.Writer) *FunctionMap {
	return &FunctionMap{
		functionGenomes:            make(map[string]map[string]bool),
		idFunction:                 make(map[string]string),
		functionIndex:              make(map[string]FunctionIndex),
		indexFunction:              make(map[FunctionIndex]string),
		goodRoles:                  make(map[string]bool),
		goodFunctions:              make(map[string]bool),
		originalAssignment:         make(map[string]string),
		originalAssignmentStripped: make(map[string]string),
		keptLog:                    keptLog,
	}
}

// AddGoodRoles marks roles as automatically qualifying any function
// that contains one of them.
func (fm *FunctionMap) AddGoodRoles(roles []string) {
	for _, r := range roles {
		fm.goodRoles[r] = true
	}
}

// AddGoodFunctions marks functions as automatically qualifying.
func (fm *FunctionMap) AddGoodFunctions(fns []string) {
	for _, f := range fns {
		fm.goodFunctions[f] = true
	}
}

// LoadIDAssignments loads a tab-delimited (id, function) file. Grounded
// on FunctionMap::load_id_assignments.
func (fm *FunctionMap) LoadIDAssignments(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return IOError("opening id assignment file %q: %s", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 2 {
			Vprintf("bad line %d in file %s\n", lineno, path)
			continue
		}
		id, rawFunc := fields[0], fields[1]

		function, delim, comment := splitFuncComment(rawFunc)
		fm.originalAssignment[id] = rawFunc
		fm.originalAssignmentStripped[id] = function

		if delim == "#" && isTruncatedComment(comment) {
			continue
		}
		fm.idFunction[id] = function
	}
	return scanner.Err()
}

// LoadFastaFile loads assignments and genome visibility data from a
// protein fasta file. Grounded on FunctionMap::load_fasta_file.
func (fm *FunctionMap) LoadFastaFile(path string, keepFunctionFlag bool, deletedFids map[string]bool) error {
	f, err := os.Open(path)
	if err != nil {
		return IOError("opening fasta file %q: %s", path, err)
	}
	defer f.Close()

	var genome string

	parser := NewFastaParser()
	parser.OnError = func(err error, line int, id string) bool {
		Vprintf("fasta parse error in %s at line %d (id=%q): %s\n", path, line, id, err)
		return true
	}
	parser.OnDefSeq = func(id, def string, seq []byte) {
		if id == "" || deletedFids[id] {
			return
		}

		var function, genomeLoc string
		trimmedDef := strings.TrimLeft(def, " \t")
		function = trimmedDef

		if m := genomeTrailerRegexp.FindStringSubmatch(def); m != nil {
			fn, delim, comment := splitFuncComment(m[1])
			if delim == "#" && isTruncatedComment(comment) {
				return
			}
			function = fn
			genomeLoc = m[2]
		}

		if genome == "" {
			if def == "" {
				if m := figIDRegexp.FindStringSubmatch(id); m != nil {
					genome = m[1]
				}
			} else if genomeLoc != "" {
				genome = genomeLoc
			}
		}
		if genome == "" {
			genome = filepath.Base(path)
			if !genomeIDRegexp.MatchString(genome) {
				Vprintf("cannot determine genome from file %s\n", path)
			}
		}

		curFunc := fm.idFunction[id]
		if curFunc == "" {
			if function != "" {
				fm.idFunction[id] = function
			}
		} else {
			function = curFunc
		}

		if function == "" {
			return
		}
		if fm.functionGenomes[function] == nil {
			fm.functionGenomes[function] = make(map[string]bool)
		}
		fm.functionGenomes[function][genome] = true
		if keepFunctionFlag {
			fm.goodFunctions[function] = true
		}
	}
	return parser.Parse(f)
}

// Qualify processes function_genome_map to decide which functions
// qualify for signature building, then assigns dense indices in
// ascending string order. Grounded on
// FunctionMap::process_kept_functions.
func (fm *FunctionMap) Qualify(minRepsRequired int) {
	kept := make(map[string]bool)

	functions := make([]string, 0, len(fm.functionGenomes))
	for fn := range fm.functionGenomes {
		functions = append(functions, fn)
	}
	sort.Strings(functions)

	for _, function := range functions {
		genomes := fm.functionGenomes[function]
		nGenomes := len(genomes)
		fm.logKept("%s: %d genomes\n", function, nGenomes)

		ok := false
		switch {
		case nGenomes >= minRepsRequired:
			fm.logKept("Keeping %s: enough genomes\n", function)
			ok = true
		case fm.goodFunctions[function]:
			fm.logKept("Keeping %s: in good functions list\n", function)
			ok = true
		default:
			fm.logKept("Role check %s:\n", function)
			for _, role := range rolesOfFunction(function) {
				if fm.goodRoles[role] {
					fm.logKept("  Keeping %s: %s in good roles list\n", function, role)
					ok = true
					break
				}
				fm.logKept("  %s: %s not in list\n", function, role)
			}
			if !ok {
				fm.logKept("Reject %s\n", function)
			}
		}
		if ok {
			kept[function] = true
		}
	}

	// Ensure we have an ID for hypothetical protein.
	kept[HypotheticalProtein] = true

	sortedKept := make([]string, 0, len(kept))
	for fn := range kept {
		sortedKept = append(sortedKept, fn)
	}
	sort.Strings(sortedKept)

	fm.functionIndex = make(map[string]FunctionIndex, len(sortedKept))
	fm.indexFunction = make(map[FunctionIndex]string, len(sortedKept))
	for i, fn := range sortedKept {
		idx := FunctionIndex(i)
		fm.functionIndex[fn] = idx
		fm.indexFunction[idx] = fn
	}
	Vprintf("kept %d functions\n", len(sortedKept))
}

func (fm *FunctionMap) logKept(format string, args ...interface{}) {
	if fm.keptLog != nil {
		fmt.Fprintf(fm.keptLog, format, args...)
	}
}

// LoadFunctionIndex reads a function.index file written by
// WriteFunctionIndex and returns a FunctionMap populated only with the
// index<->function bijection -- enough for the caller and distance
// matrix binaries, which never need the genome-qualification maps
// used at build time.
func LoadFunctionIndex(path string) (*FunctionMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, IOError("opening function index %q: %s", path, err)
	}
	defer f.Close()

	fm := NewFunctionMap(nil)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, InputError("bad function index line %q: %s", line, err)
		}
		fi := FunctionIndex(idx)
		fm.functionIndex[fields[1]] = fi
		fm.indexFunction[fi] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, IOError("reading function index %q: %s", path, err)
	}
	return fm, nil
}

// LookupFunction returns the assigned function string for a protein
// id, or "" if none.
func (fm *FunctionMap) LookupFunction(id string) string {
	return fm.idFunction[id]
}

// LookupFunctionByIndex returns the function string for a kept
// function index, or "" if idx is not a kept function.
func (fm *FunctionMap) LookupFunctionByIndex(idx FunctionIndex) string {
	return fm.indexFunction[idx]
}

// LookupIndex returns the dense index for a kept function, or
// Undefined if function was not kept.
func (fm *FunctionMap) LookupIndex(function string) FunctionIndex {
	if idx, ok := fm.functionIndex[function]; ok {
		return idx
	}
	return Undefined
}

// OriginalAssignment returns the pre-strip, comment-inclusive
// assignment string recorded for id, and whether one was recorded.
func (fm *FunctionMap) OriginalAssignment(id string) (string, bool) {
	v, ok := fm.originalAssignment[id]
	return v, ok
}

// HasHypotheticalProtein reports whether "hypothetical protein" is
// among the kept functions. Its absence after Qualify is a fatal
// configuration error per spec.md section 4.11.
func (fm *FunctionMap) HasHypotheticalProtein() bool {
	_, ok := fm.functionIndex[HypotheticalProtein]
	return ok
}

// NumKeptFunctions returns the number of functions assigned an index
// by Qualify.
func (fm *FunctionMap) NumKeptFunctions() int {
	return len(fm.functionIndex)
}

// WriteFunctionIndex writes the function.index file: one
// "<index>\t<function>\n" line per kept function, sorted ascending by
// index. Grounded on FunctionMap::write_function_index.
func (fm *FunctionMap) WriteFunctionIndex(w io.Writer) error {
	indices := make([]int, 0, len(fm.indexFunction))
	for idx := range fm.indexFunction {
		indices = append(indices, int(idx))
	}
	sort.Ints(indices)
	for _, idx := range indices {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", idx, fm.indexFunction[FunctionIndex(idx)]); err != nil {
			return IOError("writing function.index: %s", err)
		}
	}
	return nil
}

// Dump writes a debug dump of the function_genome and id_function maps
// to w, per SPEC_FULL.md section 5's supplemented "dump()" feature.
func (fm *FunctionMap) Dump(w io.Writer) error {
	fmt.Fprintln(w, "function_genome_map")
	functions := make([]string, 0, len(fm.functionGenomes))
	for fn := range fm.functionGenomes {
		functions = append(functions, fn)
	}
	sort.Strings(functions)
	for _, fn := range functions {
		genomes := make([]string, 0, len(fm.functionGenomes[fn]))
		for g := range fm.functionGenomes[fn] {
			genomes = append(genomes, g)
		}
		sort.Strings(genomes)
		fmt.Fprintf(w, "%s: %s\n", fn, strings.Join(genomes, " "))
	}
	fmt.Fprintln(w, "id_function_map")
	ids := make([]string, 0, len(fm.idFunction))
	for id := range fm.idFunction {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%s '%s'\n", id, fm.idFunction[id])
	}
	return nil
}
