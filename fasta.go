package kmersig

import (
	"bufio"
	"io"
)

// fastaState is the parser state, mirroring FastaParser::state in
// original_source/src/fasta_parser.h.
type fastaState int

const (
	stateStart fastaState = iota
	stateID
	stateDefline
	stateData
	stateIDOrData
)

// FastaRecord is one completed (id, defline, sequence) triple. Defline
// starts with the blank or tab that ended the id.
type FastaRecord struct {
	ID      string
	Defline string
	Seq     []byte
}

// FastaErrorFunc is invoked when a malformed input byte is seen. It
// receives the offending line number and the id parsed so far.
// Returning true resumes parsing (the offending byte is dropped and
// the state machine stays in its current state); returning false
// stops the parse.
type FastaErrorFunc func(err error, line int, id string) bool

// FastaParser is a deterministic state machine over a fasta byte
// stream. It is the direct port of FastaParser in
// original_source/src/fasta_parser.h: five states (start, id,
// defline, data, id-or-data), '\r' silently dropped, data lines allow
// only alphabetic characters or '*'.
type FastaParser struct {
	OnSeq    func(id string, seq []byte)
	OnDefSeq func(id, defline string, seq []byte)
	OnError  FastaErrorFunc

	lineNumber int
	state      fastaState
	id         []byte
	defline    []byte
	seq        []byte
}

// NewFastaParser returns a parser ready to Parse a stream. Set OnSeq
// and/or OnDefSeq before calling Parse to receive completed records.
func NewFastaParser() *FastaParser {
	return &FastaParser{lineNumber: 1}
}

func (p *FastaParser) init() {
	p.state = stateStart
	p.id = p.id[:0]
	p.defline = p.defline[:0]
	p.seq = p.seq[:0]
}

// Parse consumes r to completion, invoking OnSeq/OnDefSeq for each
// completed record and OnError for each malformed byte. It returns the
// first read error other than io.EOF, or nil.
func (p *FastaParser) Parse(r io.Reader) error {
	p.init()
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !p.parseChar(c) {
			break
		}
	}
	p.complete()
	return nil
}

// parseChar feeds one byte to the state machine. It returns false if
// the configured error callback requested the parse stop.
func (p *FastaParser) parseChar(c byte) bool {
	if c == '\n' {
		p.lineNumber++
	}
	if c == '\r' {
		return true
	}

	var errMsg string
	switch p.state {
	case stateStart:
		if c != '>' {
			errMsg = "missing '>' at start of record"
		} else {
			p.state = stateID
		}

	case stateID:
		switch {
		case c == ' ' || c == '\t':
			p.defline = append(p.defline, c)
			p.state = stateDefline
		case c == '\n':
			p.state = stateData
		default:
			p.id = append(p.id, c)
		}

	case stateDefline:
		if c == '\n' {
			p.state = stateData
		} else {
			p.defline = append(p.defline, c)
		}

	case stateData:
		switch {
		case c == '\n':
			p.state = stateIDOrData
		case isAlpha(c) || c == '*':
			p.seq = append(p.seq, c)
		default:
			errMsg = "bad data character '" + string(c) + "'"
		}

	case stateIDOrData:
		switch {
		case c == '>':
			p.call()
			p.id = p.id[:0]
			p.defline = p.defline[:0]
			p.seq = p.seq[:0]
			p.state = stateID
		case c == '\n':
			// no state change
		case isAlpha(c) || c == '*':
			p.seq = append(p.seq, c)
			p.state = stateData
		default:
			errMsg = "bad id or data character '" + string(c) + "'"
		}
	}

	if errMsg != "" {
		if p.OnError != nil {
			return p.OnError(InputError("%s", errMsg), p.lineNumber, string(p.id))
		}
	}
	return true
}

func (p *FastaParser) complete() {
	p.call()
	p.id = p.id[:0]
	p.defline = p.defline[:0]
	p.seq = p.seq[:0]
}

func (p *FastaParser) call() {
	if len(p.id) == 0 && len(p.seq) == 0 && len(p.defline) == 0 {
		return
	}
	if p.OnSeq != nil {
		p.OnSeq(string(p.id), append([]byte(nil), p.seq...))
	}
	if p.OnDefSeq != nil {
		p.OnDefSeq(string(p.id), string(p.defline), append([]byte(nil), p.seq...))
	}
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// ReadFasta parses r and returns every completed record. It is the
// simple, non-streaming counterpart to FastaParser for callers (tests,
// small utility commands) that want the whole file in memory.
func ReadFasta(r io.Reader) ([]FastaRecord, error) {
	var records []FastaRecord
	p := NewFastaParser()
	p.OnDefSeq = func(id, defline string, seq []byte) {
		records = append(records, FastaRecord{ID: id, Defline: defline, Seq: seq})
	}
	p.OnError = func(err error, line int, id string) bool {
		Vprintf("fasta parse error at line %d (id=%q): %s\n", line, id, err)
		return true
	}
	if err := p.Parse(r); err != nil {
		return nil, err
	}
	return records, nil
}
