package dna

// Code2 maps a nucleotide to its 2-bit code (A=0 C=1 G=2 T=3). Anything
// else, including IUPAC ambiguity codes, maps to 4.
var Code2 [256]uint8

func init() {
	for i := range Code2 {
		Code2[i] = 4
	}
	for i, c := range []byte("ACGT") {
		Code2[c] = uint8(i)
		Code2[c+'a'-'A'] = uint8(i)
	}
	Code2['U'], Code2['u'] = 3, 3
}

// IsACGT reports whether b is an unambiguous base.
func IsACGT(b byte) bool { return Code2[b] < 4 }
