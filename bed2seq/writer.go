package bed2seq

import (
	"bufio"
	"context"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// DefaultOutputPath derives the output FASTA path from the BED input path:
// "<basename without extension>-bed2seq.fa" in the current directory.  Stdin
// input ("-") maps to "stdin-bed2seq.fa".
func DefaultOutputPath(bedPath string) string {
	if bedPath == "-" {
		return "stdin-bed2seq.fa"
	}
	base := filepath.Base(bedPath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base + "-bed2seq.fa"
}

// WriteFASTA writes records to path in order, one ">" header line plus the
// wrapped sequence per record.  wrapWidth <= 0 disables wrapping.  Zero
// records produce an empty file, not an error.
func WriteFASTA(ctx context.Context, path string, recs []Record, wrapWidth int) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "creating output file", path)
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(out.Writer(ctx))
	for _, rec := range recs {
		if _, err = w.WriteString(">" + rec.Name + "\n"); err != nil {
			return err
		}
		if err = writeWrapped(w, rec.Seq, wrapWidth); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeWrapped writes seq hard-wrapped at width columns, each line
// newline-terminated.
func writeWrapped(w *bufio.Writer, seq string, width int) error {
	if width > 0 {
		for len(seq) > width {
			if _, err := w.WriteString(seq[:width]); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
			seq = seq[width:]
		}
	}
	if _, err := w.WriteString(seq); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
