package bed2seq

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bio-bed2seq/encoding/refseq"
)

// Schema identifies which of the optional BED columns are present.  It is
// sniffed once from the first data line and then applied uniformly to every
// row; rows are not re-sniffed individually.
type Schema int

const (
	// ThreeColumn is the minimal chrom/start/end form.  Names are
	// synthesized as "sequence_<row>".
	ThreeColumn Schema = iota
	// FourColumn adds a name column.
	FourColumn
	// SixPlusColumn adds name, score, and strand columns.
	SixPlusColumn
)

// minFields returns the field count a row must have under the schema.
func (s Schema) minFields() int {
	switch s {
	case SixPlusColumn:
		return 6
	case FourColumn:
		return 4
	}
	return 3
}

// Interval is one parsed BED row.  Start/End follow the BED convention:
// 0-based, half-open.
type Interval struct {
	Chrom  string
	Start  int64
	End    int64
	Name   string
	Score  string
	Strand string
}

// isData reports whether a BED line carries an interval, as opposed to a
// comment or blank line.
func isData(line string) bool {
	if strings.HasPrefix(line, "#") {
		return false
	}
	return strings.TrimRightFunc(line, unicode.IsSpace) != ""
}

// SniffSchema determines the column schema from the first data line.
// Comment-only input defaults to ThreeColumn; the result is irrelevant then
// since there are no rows to parse.
func SniffSchema(lines []string) Schema {
	for _, line := range lines {
		if !isData(line) {
			continue
		}
		switch n := len(strings.Split(line, "\t")); {
		case n >= 6:
			return SixPlusColumn
		case n >= 4:
			return FourColumn
		default:
			return ThreeColumn
		}
	}
	return ThreeColumn
}

// checkFirstRow verifies, on the first data line only, that the row has at
// least three columns and that its chromosome is known to the genome.  The
// latter catches naming-convention mismatches between BED and reference
// ("chr1" vs "1") before any sequence is extracted; mismatches on later rows
// surface as lookup failures during extraction.
func checkFirstRow(lines []string, genome refseq.Genome) error {
	for i, line := range lines {
		if !isData(line) {
			continue
		}
		fields := strings.Split(strings.TrimRightFunc(line, unicode.IsSpace), "\t")
		if len(fields) < 3 {
			return errors.E(fmt.Sprintf(
				"not enough columns at line %d (check your BED file)", i+1))
		}
		if !genome.Has(fields[0]) {
			example := "<none>"
			if names := genome.Contigs(); len(names) > 0 {
				example = names[0]
			}
			return errors.E(fmt.Sprintf(
				"chromosomes are not named the same way in the BED file and the genome: "+
					"BED has %q, genome has e.g. %q; correct the BED file or edit the genome's .fai index",
				fields[0], example))
		}
		return nil
	}
	return nil
}

// parseRow parses one data line under the given schema.  row is the 1-based
// data-row number, used for error reporting and for synthesized names.
func parseRow(line string, schema Schema, row int) (Interval, error) {
	fields := strings.Split(strings.TrimRightFunc(line, unicode.IsSpace), "\t")
	if len(fields) < schema.minFields() {
		return Interval{}, errors.E(fmt.Sprintf(
			"not enough columns at row %d: got %d, want at least %d",
			row, len(fields), schema.minFields()))
	}
	iv := Interval{Chrom: fields[0]}
	var err error
	if iv.Start, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return Interval{}, errors.E(err, fmt.Sprintf("bad start coordinate at row %d", row))
	}
	if iv.End, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
		return Interval{}, errors.E(err, fmt.Sprintf("bad end coordinate at row %d", row))
	}
	switch schema {
	case SixPlusColumn:
		iv.Name, iv.Score, iv.Strand = fields[3], fields[4], fields[5]
	case FourColumn:
		iv.Name = fields[3]
	default:
		iv.Name = fmt.Sprintf("sequence_%d", row)
	}
	return iv, nil
}
