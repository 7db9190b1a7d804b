// internal/dna/rc.go
package dna

var complement = [256]byte{}

func init() {
	for i := range complement {
		complement[i] = 'N'
	}
	pairs := map[byte]byte{
		'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A',
		'R': 'Y', 'Y': 'R', // A/G  <->  C/T
		'S': 'S', 'W': 'W', // GC   <->  GC   ; AT <-> AT
		'K': 'M', 'M': 'K',
		'B': 'V', 'V': 'B',
		'D': 'H', 'H': 'D',
		'N': 'N',
	}
	for b, c := range pairs {
		complement[b] = c
		complement[b+'a'-'A'] = c
	}
	complement['U'], complement['u'] = 'A', 'A'
}

// RevComp returns the reverse complement of seq as upper-case IUPAC.
// Unknown bytes become 'N'.
func RevComp(seq []byte) []byte {
	n := len(seq)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = complement[seq[n-1-i]]
	}
	return out
}

// Upper normalises seq to upper case in place and maps U to T.
func Upper(seq []byte) []byte {
	for i, c := range seq {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == 'U' {
			c = 'T'
		}
		seq[i] = c
	}
	return seq
}

// Normalize applies Upper and then maps every non-ACGT byte to 'N', in place.
func Normalize(seq []byte) []byte {
	for i, c := range Upper(seq) {
		if !IsACGT(c) {
			seq[i] = 'N'
		}
	}
	return seq
}
