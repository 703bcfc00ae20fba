package kmersig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFastaBasic(t *testing.T) {
	input := ">seq1 first record\nMKVL\nAAT\n>seq2\nGGHH\n"
	records, err := ReadFasta(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "seq1", records[0].ID)
	// The blank that ends the id is kept as the defline's first byte.
	assert.Equal(t, " first record", records[0].Defline)
	assert.Equal(t, "MKVLAAT", string(records[0].Seq))

	assert.Equal(t, "seq2", records[1].ID)
	assert.Equal(t, "", records[1].Defline)
	assert.Equal(t, "GGHH", string(records[1].Seq))
}

func TestReadFastaStripsCarriageReturn(t *testing.T) {
	input := ">seq1\r\nMKVL\r\n"
	records, err := ReadFasta(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MKVL", string(records[0].Seq))
}

func TestFastaParserRecoversFromBadDataByte(t *testing.T) {
	input := ">seq1\nMK1VL\n"
	var errs []string
	var seqs []string
	p := NewFastaParser()
	p.OnSeq = func(id string, seq []byte) { seqs = append(seqs, string(seq)) }
	p.OnError = func(err error, line int, id string) bool {
		errs = append(errs, err.Error())
		return true
	}
	require.NoError(t, p.Parse(strings.NewReader(input)))
	require.Len(t, errs, 1)
	require.Len(t, seqs, 1)
	assert.Equal(t, "MKVL", seqs[0])
}

func TestFastaParserStopsWhenErrorCallbackReturnsFalse(t *testing.T) {
	input := ">seq1\nMK1VL\n>seq2\nGGHH\n"
	var seqs []string
	p := NewFastaParser()
	p.OnSeq = func(id string, seq []byte) { seqs = append(seqs, string(seq)) }
	p.OnError = func(err error, line int, id string) bool { return false }
	require.NoError(t, p.Parse(strings.NewReader(input)))
	// Parsing stopped mid-record; only the partial accumulation up to
	// the offending byte is ever flushed, and seq2 is never reached.
	require.Len(t, seqs, 1)
	assert.Equal(t, "MK", seqs[0])
}

func TestReadFastaEmptyInput(t *testing.T) {
	records, err := ReadFasta(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}
