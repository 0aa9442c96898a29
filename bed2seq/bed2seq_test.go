package bed2seq_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bio-bed2seq/bed2seq"
	"github.com/grailbio/bio-bed2seq/encoding/refseq"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const genomeData = ">chr1\n" +
	"ACGTACGTAA\nGGCCTTACGT\nACGTAAGGCC\nTTACGTACGT\n" +
	">chr2\n" +
	"ACGTACGT\n"

const genomeIndex = "chr1\t40\t6\t10\t11\n" + "chr2\t8\t56\t8\t9\n"

func testGenome(t *testing.T) refseq.Genome {
	t.Helper()
	g, err := refseq.New(strings.NewReader(genomeData), strings.NewReader(genomeIndex))
	require.NoError(t, err)
	return g
}

func TestConvertForward(t *testing.T) {
	recs, warnings, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA\t0\t+"}, testGenome(t), &bed2seq.Opts{})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, []bed2seq.Record{{Name: "featureA", Seq: "AGGCCTTACGT"}}, recs)
}

func TestConvertMinusStrand(t *testing.T) {
	recs, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA\t0\t-"}, testGenome(t), &bed2seq.Opts{})
	require.NoError(t, err)
	require.Equal(t, "ACGTAAGGCCT", recs[0].Seq)
}

func TestConvertNoStrand(t *testing.T) {
	recs, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA\t0\t-"}, testGenome(t), &bed2seq.Opts{NoStrand: true})
	require.NoError(t, err)
	require.Equal(t, "AGGCCTTACGT", recs[0].Seq)
}

// Minus-strand handling only applies when the schema actually carries a
// strand column; a 4-column BED is always forward.
func TestConvertFourColumnIgnoresStrand(t *testing.T) {
	recs, warnings, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA"}, testGenome(t), &bed2seq.Opts{})
	require.NoError(t, err)
	require.Equal(t, "AGGCCTTACGT", recs[0].Seq)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "no strand column")
}

func TestConvertSynthesizedNames(t *testing.T) {
	lines := []string{
		"# header comment",
		"chr1\t10\t20",
		"",
		"chr1\t22\t25",
	}
	recs, _, err := bed2seq.Convert(lines, testGenome(t), &bed2seq.Opts{NoStrand: true})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "sequence_1", recs[0].Name)
	require.Equal(t, "sequence_2", recs[1].Name)
}

// The extractor slices one base ahead of the 0-based BED start, so a 10 bp
// interval yields 11 bases.  This widening is deliberate output behavior of
// the tool; this test pins it so nobody "fixes" it silently.
func TestConvertWidensStartByOneBase(t *testing.T) {
	recs, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20"}, testGenome(t), &bed2seq.Opts{NoStrand: true})
	require.NoError(t, err)
	require.Len(t, recs[0].Seq, 11)
	require.Equal(t, "AGGCCTTACGT", recs[0].Seq)
}

func TestConvertAppend(t *testing.T) {
	recs, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA\t0\t+"}, testGenome(t), &bed2seq.Opts{Append: 3})
	require.NoError(t, err)
	require.Equal(t, "GTAAGGCCTTACGTACG", recs[0].Seq)
}

func TestConvertRemove(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		recs, _, err := bed2seq.Convert(
			[]string{"chr1\t10\t20\tfeatureA\t0\t+"}, testGenome(t),
			&bed2seq.Opts{Append: k, Remove: true})
		require.NoError(t, err)
		require.Len(t, recs[0].Seq, 2*k, "append %d", k)
	}
	// The flanks of the append-3 slice GTAAGGCCTTACGTACG.
	recs, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA\t0\t+"}, testGenome(t),
		&bed2seq.Opts{Append: 3, Remove: true})
	require.NoError(t, err)
	require.Equal(t, "GTAACG", recs[0].Seq)
}

func TestConvertRemoveAfterReverseComplement(t *testing.T) {
	// Flanks must be cut from the minus-strand sequence, not the forward one.
	recs, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20\tfeatureA\t0\t-"}, testGenome(t),
		&bed2seq.Opts{Append: 3, Remove: true})
	require.NoError(t, err)
	require.Equal(t, refseq.ReverseComplement("GTAAGGCCTTACGTACG")[:3]+
		refseq.ReverseComplement("GTAAGGCCTTACGTACG")[14:], recs[0].Seq)
}

func TestConvertRemoveRequiresAppend(t *testing.T) {
	// Rejected before any row is parsed, whatever the BED content.
	_, _, err := bed2seq.Convert(
		[]string{"not\teven\ta\tvalid\trow"}, testGenome(t), &bed2seq.Opts{Remove: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "-remove requires -append")
}

func TestConvertChromMismatch(t *testing.T) {
	_, _, err := bed2seq.Convert(
		[]string{"chrX\t1\t5"}, testGenome(t), &bed2seq.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"chrX"`)
	require.Contains(t, err.Error(), `"chr1"`)
}

func TestConvertLaterRowMismatch(t *testing.T) {
	// Only the first row is checked eagerly; later unknown chromosomes fail
	// at slice time.
	_, _, err := bed2seq.Convert(
		[]string{"chr1\t10\t20", "chr9\t5\t8"}, testGenome(t), &bed2seq.Opts{NoStrand: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "chr9")
}

func TestConvertTooFewColumns(t *testing.T) {
	_, _, err := bed2seq.Convert(
		[]string{"# comment", "chr1\t10"}, testGenome(t), &bed2seq.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestConvertEmptyInput(t *testing.T) {
	recs, warnings, err := bed2seq.Convert(
		[]string{"# only a comment", ""}, testGenome(t), &bed2seq.Opts{})
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Empty(t, warnings)
}

func TestConvertStartBeforeContig(t *testing.T) {
	_, _, err := bed2seq.Convert(
		[]string{"chr1\t0\t5"}, testGenome(t), &bed2seq.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "before the start")
}

func TestConvertEndClampedToContig(t *testing.T) {
	recs, _, err := bed2seq.Convert(
		[]string{"chr2\t5\t8"}, testGenome(t), &bed2seq.Opts{Append: 4, NoStrand: true})
	require.NoError(t, err)
	require.Equal(t, "ACGTACGT", recs[0].Seq)
}

func writeTestGenome(t *testing.T, dir string) string {
	t.Helper()
	genomePath := filepath.Join(dir, "ref.fa")
	require.NoError(t, ioutil.WriteFile(genomePath, []byte(genomeData), 0644))
	return genomePath
}

func TestRun(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	genomePath := writeTestGenome(t, tmpdir)
	bedPath := filepath.Join(tmpdir, "in.bed")
	require.NoError(t, ioutil.WriteFile(bedPath,
		[]byte("chr1\t10\t20\tfeatureA\t0\t+\nchr1\t10\t20\tfeatureB\t0\t-\n"), 0644))

	ctx := vcontext.Background()
	opts := bed2seq.Opts{Output: filepath.Join(tmpdir, "out.fa"), WrapWidth: 100}
	result, err := bed2seq.Run(ctx, bedPath, genomePath, &opts)
	require.NoError(t, err)
	require.Equal(t, 2, result.NumRecords)
	require.Empty(t, result.Warnings)

	out, err := ioutil.ReadFile(result.Path)
	require.NoError(t, err)
	require.Equal(t, ">featureA\nAGGCCTTACGT\n>featureB\nACGTAAGGCCT\n", string(out))

	// The faidx side file was created next to the genome.
	_, err = os.Stat(refseq.IndexPath(genomePath))
	require.NoError(t, err)
}

func TestRunGzippedBED(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	genomePath := writeTestGenome(t, tmpdir)
	bedPath := filepath.Join(tmpdir, "in.bed.gz")
	f, err := os.Create(bedPath)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("chr1\t10\t20\tfeatureA\t0\t+\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ctx := vcontext.Background()
	opts := bed2seq.Opts{Output: filepath.Join(tmpdir, "out.fa")}
	result, err := bed2seq.Run(ctx, bedPath, genomePath, &opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.NumRecords)

	out, err := ioutil.ReadFile(result.Path)
	require.NoError(t, err)
	require.Equal(t, ">featureA\nAGGCCTTACGT\n", string(out))
}

func TestRunEmptyBED(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	genomePath := writeTestGenome(t, tmpdir)
	bedPath := filepath.Join(tmpdir, "in.bed")
	require.NoError(t, ioutil.WriteFile(bedPath, []byte("# track header only\n"), 0644))

	ctx := vcontext.Background()
	opts := bed2seq.Opts{Output: filepath.Join(tmpdir, "out.fa")}
	result, err := bed2seq.Run(ctx, bedPath, genomePath, &opts)
	require.NoError(t, err)
	require.Equal(t, 0, result.NumRecords)

	// An empty output file is written; an empty run is not an error.
	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	require.EqualValues(t, 0, info.Size())
}

func TestRunRemoveWithoutAppend(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	genomePath := writeTestGenome(t, tmpdir)
	bedPath := filepath.Join(tmpdir, "in.bed")
	require.NoError(t, ioutil.WriteFile(bedPath, []byte("chr1\t10\t20\n"), 0644))

	ctx := vcontext.Background()
	opts := bed2seq.Opts{Output: filepath.Join(tmpdir, "out.fa"), Remove: true}
	_, err := bed2seq.Run(ctx, bedPath, genomePath, &opts)
	require.Error(t, err)

	// Rejected before any file I/O: no output was created.
	_, err = os.Stat(opts.Output)
	require.True(t, os.IsNotExist(err))
}

func TestRunDefaultOutputName(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	genomePath := writeTestGenome(t, tmpdir)
	bedPath := filepath.Join(tmpdir, "peaks.bed")
	require.NoError(t, ioutil.WriteFile(bedPath, []byte("chr1\t10\t20\tfeatureA\t0\t+\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpdir))
	defer os.Chdir(wd) // nolint: errcheck

	ctx := vcontext.Background()
	result, err := bed2seq.Run(ctx, bedPath, genomePath, &bed2seq.Opts{})
	require.NoError(t, err)
	require.Equal(t, "peaks-bed2seq.fa", result.Path)

	out, err := ioutil.ReadFile(filepath.Join(tmpdir, "peaks-bed2seq.fa"))
	require.NoError(t, err)
	require.Equal(t, ">featureA\nAGGCCTTACGT\n", string(out))
}
