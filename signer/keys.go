// Package signer maintains a zone's KSK/ZSK keypairs and produces RRSIGs
// over RRsets in canonical form. Raw cryptographic operations (RSA/ECDSA
// signing, the SHA-1/SHA-256 digests DS records and NSEC3 hashing need) are
// consumed through the standard library's crypto primitives directly — the
// narrow interface the top-level spec carves out as an external
// collaborator rather than something this package reimplements.
package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/zoneauth/zoneauth/rdata"
)

// Algorithm identifiers (RFC 8624 / IANA DNSSEC algorithm registry) this
// implementation supports.
const (
	AlgRSASHA256      uint8 = 8
	AlgECDSAP256SHA256 uint8 = 13
)

// Key bundles the public DNSKEY record with the private material needed to
// sign, behind a crypto.Signer so RSA and ECDSA are handled uniformly.
type Key struct {
	Algorithm uint8
	Flags     uint16 // signer.ZSKFlag or signer.KSKFlag (mirrors rdata.DNSKEY flags)
	Private   crypto.Signer
	DNSKEY    *rdata.DNSKEY
}

const (
	ZSKFlag = rdata.ZSKFlag
	KSKFlag = rdata.KSKFlag
)

// KeyTag returns the RFC 4034 Appendix B key tag for this key's DNSKEY.
func (k *Key) KeyTag() uint16 { return k.DNSKEY.KeyTag() }

// LoadKeyFile reads a PEM-encoded PKCS#8 private key (RSA or ECDSA), derives its
// public DNSKEY RDATA, and assigns the given flags. The on-disk format is
// implementation-defined per §6 ("Key files ... must yield (algorithm,
// flags, private key, public key, key-tag)"); PEM + PKCS#8 is the least
// surprising choice given the rest of the stack has no bespoke binary
// formats anywhere else.
func LoadKeyFile(pemBytes []byte, flags uint16) (*Key, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("signer: no PEM block found in key file")
	}
	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signer: parsing private key: %w", err)
	}
	switch p := priv.(type) {
	case *rsa.PrivateKey:
		return newRSAKey(p, flags)
	case *ecdsa.PrivateKey:
		return newECDSAKey(p, flags)
	default:
		return nil, fmt.Errorf("signer: unsupported private key type %T", priv)
	}
}

func newRSAKey(priv *rsa.PrivateKey, flags uint16) (*Key, error) {
	pub := priv.PublicKey
	exp := pub.E
	var expBytes []byte
	if exp <= 0xFF {
		expBytes = []byte{byte(exp)}
	} else if exp <= 0xFFFF {
		expBytes = []byte{byte(exp >> 8), byte(exp)}
	} else {
		expBytes = big.NewInt(int64(exp)).Bytes()
	}
	modulus := pub.N.Bytes()

	var pubkey []byte
	if len(expBytes) <= 255 {
		pubkey = append(pubkey, byte(len(expBytes)))
	} else {
		pubkey = append(pubkey, 0)
		pubkey = append(pubkey, byte(len(expBytes)>>8), byte(len(expBytes)))
	}
	pubkey = append(pubkey, expBytes...)
	pubkey = append(pubkey, modulus...)

	dnskey := &rdata.DNSKEY{Flags: flags, Protocol: 3, Algorithm: AlgRSASHA256, PublicKey: pubkey}
	return &Key{Algorithm: AlgRSASHA256, Flags: flags, Private: priv, DNSKEY: dnskey}, nil
}

func newECDSAKey(priv *ecdsa.PrivateKey, flags uint16) (*Key, error) {
	if priv.Curve != elliptic.P256() {
		return nil, fmt.Errorf("signer: only ECDSA P-256 is supported")
	}
	size := 32
	x := priv.PublicKey.X.FillBytes(make([]byte, size))
	y := priv.PublicKey.Y.FillBytes(make([]byte, size))
	pubkey := append(append([]byte{}, x...), y...)
	dnskey := &rdata.DNSKEY{Flags: flags, Protocol: 3, Algorithm: AlgECDSAP256SHA256, PublicKey: pubkey}
	return &Key{Algorithm: AlgECDSAP256SHA256, Flags: flags, Private: priv, DNSKEY: dnskey}, nil
}

// GenerateKey creates a fresh keypair for tests and bootstrap tooling
// (there is no on-disk key yet to load). alg selects RSA or ECDSA.
func GenerateKey(alg uint8, flags uint16) (*Key, error) {
	switch alg {
	case AlgRSASHA256:
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, err
		}
		return newRSAKey(priv, flags)
	case AlgECDSAP256SHA256:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		return newECDSAKey(priv, flags)
	default:
		return nil, fmt.Errorf("signer: unsupported algorithm %d", alg)
	}
}

// DSDigest computes a DS record over this key using the requested digest
// algorithm (1 = SHA-1, 2 = SHA-256), per RFC 4034 §5.1.4: digest =
// hash(canonical_owner | DNSKEY RDATA).
func (k *Key) DSDigest(owner []byte, digestType uint8) (*rdata.DS, error) {
	var sum []byte
	var buf []byte
	buf = append(buf, owner...)
	var rdbuf = encodeDNSKEYRDATA(k.DNSKEY)
	buf = append(buf, rdbuf...)
	switch digestType {
	case 1:
		sum = sha1Sum(buf)
	case 2:
		h := sha256.Sum256(buf)
		sum = h[:]
	default:
		return nil, fmt.Errorf("signer: unsupported DS digest type %d", digestType)
	}
	return &rdata.DS{KeyTag: k.KeyTag(), Algorithm: k.Algorithm, DigestType: digestType, Digest: sum}, nil
}

func encodeDNSKEYRDATA(k *rdata.DNSKEY) []byte {
	var buf []byte
	buf = append(buf, byte(k.Flags>>8), byte(k.Flags))
	buf = append(buf, k.Protocol, k.Algorithm)
	buf = append(buf, k.PublicKey...)
	return buf
}
