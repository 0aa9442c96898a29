package refseq

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// faiEntry describes one contig of a faidx index: total bases, byte offset of
// the first base, bases per line, and bytes per line (terminator included).
type faiEntry struct {
	bases        int64
	offset       int64
	basesPerLine int64
	bytesPerLine int64
}

// GenerateIndex writes a faidx index for the FASTA data read from in.  The
// output format is the one defined by "samtools faidx"
// (http://www.htslib.org/doc/faidx.html), so indexes produced by either tool
// are interchangeable.
//
// The FASTA is rejected if it is empty, contains sequence data before the
// first header, has an empty sequence name, or has ragged line widths inside
// a contig (a short line is only legal as the last line of its contig).
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		w       = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		name    string
		ent     faiEntry
		byteOff int64
		seen    bool
		short   bool // the previous data line of this contig was short
	)
	flush := func() error {
		w.WriteString(name)
		w.WriteInt64(ent.bases)
		w.WriteInt64(ent.offset)
		w.WriteInt64(ent.basesPerLine)
		w.WriteInt64(ent.bytesPerLine)
		return w.EndLine()
	}
	for {
		raw, readErr := r.ReadString('\n')
		if len(raw) > 0 {
			line := strings.TrimRight(raw, "\r\n")
			switch {
			case len(line) == 0:
				// Blank lines terminate any in-progress contig body.
				if seen && ent.basesPerLine != 0 {
					short = true
				}
			case line[0] == '>':
				if seen {
					if err := flush(); err != nil {
						return err
					}
				}
				name = strings.SplitN(line[1:], " ", 2)[0]
				if name == "" {
					return errors.E("malformed FASTA: empty sequence name")
				}
				ent = faiEntry{offset: byteOff + int64(len(raw))}
				seen = true
				short = false
			default:
				if !seen {
					return errors.E("malformed FASTA: sequence data before first header")
				}
				if ent.basesPerLine == 0 {
					ent.basesPerLine = int64(len(line))
					ent.bytesPerLine = int64(len(raw))
				} else if short || int64(len(line)) > ent.basesPerLine {
					return errors.E("malformed FASTA: ragged line widths in sequence", name)
				}
				if int64(len(line)) < ent.basesPerLine {
					short = true
				}
				ent.bases += int64(len(line))
			}
			byteOff += int64(len(raw))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	if !seen {
		return errors.E("empty FASTA file")
	}
	if err := flush(); err != nil {
		return err
	}
	return w.Flush()
}
