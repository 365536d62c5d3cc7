package signer

import "crypto/sha1"

// SHA1 is exported for the denial package's NSEC3 iterated hashing (RFC
// 5155 §5), which needs the same narrow stdlib digest primitive as DS
// record generation.
func SHA1(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

func sha1Sum(b []byte) []byte { return SHA1(b) }
