// Package refseq provides random access into a reference genome stored as a
// FASTA file with a faidx index side file (see
// http://www.htslib.org/doc/faidx.html).  The index is a TSV with one line
// per contig: "<name>\t<bases>\t<byte offset>\t<bases per line>\t<bytes per
// line>".  Opening a genome through this package creates the index next to
// the FASTA file on first use.
package refseq

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is the cause of errors returned by Open when the genome
	// FASTA file does not exist.
	ErrNotFound = errors.New("reference FASTA not found")
	// ErrIndexWrite is the cause of errors returned by Open when the faidx
	// side file is missing and cannot be created.
	ErrIndexWrite = errors.New("reference index not writable")
)

// Genome is a read-only view of an indexed reference genome.  Implementations
// are safe for concurrent use.
type Genome interface {
	// Slice returns bases [start, end) of the named contig, 0-based.
	Slice(contig string, start, end int64) (string, error)

	// Len returns the number of bases in the named contig.
	Len(contig string) (int64, error)

	// Has reports whether the named contig exists.
	Has(contig string) bool

	// Contigs returns all contig names, in genome order.
	Contigs() []string

	// Close releases the underlying file, if any.
	Close() error
}

type genome struct {
	r       io.ReaderAt
	closer  io.Closer // nil when the caller owns the reader
	contigs map[string]faiEntry
	names   []string
}

// IndexPath returns the path of the faidx side file for a genome path.
func IndexPath(genomePath string) string {
	return genomePath + ".fai"
}

// Open opens the genome FASTA at path for random access, generating the faidx
// side file next to it if one does not exist yet.  The error cause is
// ErrNotFound when the FASTA is missing and ErrIndexWrite when the index must
// be generated but its directory is not writable.
func Open(path string) (Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, path)
		}
		return nil, err
	}
	indexPath := IndexPath(path)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		if err := createIndex(indexPath, f); err != nil {
			f.Close() // nolint: errcheck
			return nil, err
		}
	}
	idx, err := os.Open(indexPath)
	if err != nil {
		f.Close() // nolint: errcheck
		return nil, err
	}
	g, err := New(f, idx)
	if cerr := idx.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		f.Close() // nolint: errcheck
		return nil, err
	}
	g.(*genome).closer = f
	return g, nil
}

// createIndex writes a freshly generated faidx index to indexPath.  A partial
// index is removed on failure so the next Open retries from scratch.
func createIndex(indexPath string, genomeData io.Reader) error {
	out, err := os.Create(indexPath)
	if err != nil {
		return errors.Wrapf(ErrIndexWrite, "%s (is directory %q writable?)",
			indexPath, filepath.Dir(indexPath))
	}
	if err := GenerateIndex(out, genomeData); err != nil {
		out.Close()          // nolint: errcheck
		os.Remove(indexPath) // nolint: errcheck
		return err
	}
	return out.Close()
}

// New creates a Genome from FASTA data and its faidx index.  The reader is
// not closed by the returned Genome.
func New(r io.ReaderAt, index io.Reader) (Genome, error) {
	g := &genome{r: r, contigs: make(map[string]faiEntry)}
	scanner := bufio.NewScanner(index)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 5 {
			return nil, errors.Errorf("invalid faidx line %d: %q", lineIdx, scanner.Text())
		}
		var (
			ent  faiEntry
			errs [4]error
		)
		ent.bases, errs[0] = strconv.ParseInt(fields[1], 10, 64)
		ent.offset, errs[1] = strconv.ParseInt(fields[2], 10, 64)
		ent.basesPerLine, errs[2] = strconv.ParseInt(fields[3], 10, 64)
		ent.bytesPerLine, errs[3] = strconv.ParseInt(fields[4], 10, 64)
		for _, err := range errs {
			if err != nil {
				return nil, errors.Wrapf(err, "invalid faidx line %d", lineIdx)
			}
		}
		if ent.bases > 0 && (ent.basesPerLine <= 0 || ent.bytesPerLine < ent.basesPerLine) {
			return nil, errors.Errorf("invalid faidx line widths on line %d: %q", lineIdx, scanner.Text())
		}
		if _, found := g.contigs[fields[0]]; found {
			return nil, errors.Errorf("duplicate contig %q in faidx index", fields[0])
		}
		g.contigs[fields[0]] = ent
		g.names = append(g.names, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading faidx index")
	}
	return g, nil
}

// Slice implements Genome.Slice().
func (g *genome) Slice(contig string, start, end int64) (string, error) {
	ent, ok := g.contigs[contig]
	if !ok {
		return "", errors.Errorf("contig not found in index: %s", contig)
	}
	if start < 0 {
		return "", errors.Errorf("negative start coordinate %d for contig %s", start, contig)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end (%d >= %d)", start, end)
	}
	if end > ent.bases {
		return "", errors.Errorf("end is past the end of contig %s: %d > %d", contig, end, ent.bases)
	}

	// Byte range covering bases [start, end), newline characters included.
	sep := ent.bytesPerLine - ent.basesPerLine
	lo := ent.offset + start + sep*(start/ent.basesPerLine)
	hi := ent.offset + (end - 1) + sep*((end-1)/ent.basesPerLine) + 1

	buf := make([]byte, hi-lo)
	if n, err := g.r.ReadAt(buf, lo); int64(n) < hi-lo {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", errors.Wrapf(err, "reading %s:%d-%d (truncated FASTA or stale index?)",
			contig, start, end)
	}
	out := buf[:0]
	for _, c := range buf {
		if c != '\n' && c != '\r' {
			out = append(out, c)
		}
	}
	return string(out), nil
}

// Len implements Genome.Len().
func (g *genome) Len(contig string) (int64, error) {
	ent, ok := g.contigs[contig]
	if !ok {
		return 0, errors.Errorf("contig not found in index: %s", contig)
	}
	return ent.bases, nil
}

// Has implements Genome.Has().
func (g *genome) Has(contig string) bool {
	_, ok := g.contigs[contig]
	return ok
}

// Contigs implements Genome.Contigs().
func (g *genome) Contigs() []string {
	return g.names
}

// Close implements Genome.Close().
func (g *genome) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer.Close()
}
