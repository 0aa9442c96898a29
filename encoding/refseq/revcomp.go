package refseq

// complement maps each base to its complement.  A/C/G/T in either case map
// to upper-case complements; every other byte maps to 'N'.
var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = 'N'
	}
	for _, bc := range [][2]byte{
		{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'},
		{'a', 'T'}, {'c', 'G'}, {'g', 'C'}, {'t', 'A'},
	} {
		complement[bc[0]] = bc[1]
	}
}

// ReverseComplement returns the reverse complement of seq, the minus-strand
// representation of a forward slice.  Output is restricted to A/C/G/T/N.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complement[seq[i]]
	}
	return string(out)
}
