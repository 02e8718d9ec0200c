package dnssec

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/deep-soft/toluol/internal/dns/domain"
)

// DNSSEC signing algorithm codes from the IANA registry. Only the RSA family
// and ECDSA P-256 are verifiable here; the rest are recognized so they can be
// reported as unsupported rather than malformed.
const (
	AlgRSASHA1          uint8 = 5
	AlgRSASHA1NSEC3SHA1 uint8 = 7
	AlgRSASHA256        uint8 = 8
	AlgRSASHA512        uint8 = 10
	AlgECDSAP256SHA256  uint8 = 13
	AlgECDSAP384SHA384  uint8 = 14
	AlgEd25519          uint8 = 15
)

// RRSIG is the decoded RDATA of an RRSIG record (RFC 4034, Section 3.1).
type RRSIG struct {
	TypeCovered domain.RRType
	Algorithm   uint8
	Labels      uint8
	OriginalTTL uint32
	Expiration  uint32
	Inception   uint32
	KeyTag      uint16
	SignerName  domain.Name
	Signature   []byte
}

// ParseRRSIG decodes RRSIG RDATA from its uncompressed wire form.
func ParseRRSIG(data []byte) (RRSIG, error) {
	if len(data) < 18 {
		return RRSIG{}, fmt.Errorf("rrsig rdata of %d octets: %w", len(data), domain.ErrShortBuffer)
	}
	signer, off, err := domain.DecodeNameUncompressed(data, 18)
	if err != nil {
		return RRSIG{}, fmt.Errorf("rrsig signer name: %w", err)
	}
	return RRSIG{
		TypeCovered: domain.RRType(binary.BigEndian.Uint16(data[0:2])),
		Algorithm:   data[2],
		Labels:      data[3],
		OriginalTTL: binary.BigEndian.Uint32(data[4:8]),
		Expiration:  binary.BigEndian.Uint32(data[8:12]),
		Inception:   binary.BigEndian.Uint32(data[12:16]),
		KeyTag:      binary.BigEndian.Uint16(data[16:18]),
		SignerName:  signer,
		Signature:   append([]byte(nil), data[off:]...),
	}, nil
}

// appendSignedPrefix appends the RRSIG RDATA with the signature field left
// out and the signer name in canonical form, the first component of the data
// a signature covers (RFC 4034, Section 3.1.8.1).
func (s RRSIG) appendSignedPrefix(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, uint16(s.TypeCovered))
	buf = append(buf, s.Algorithm, s.Labels)
	buf = binary.BigEndian.AppendUint32(buf, s.OriginalTTL)
	buf = binary.BigEndian.AppendUint32(buf, s.Expiration)
	buf = binary.BigEndian.AppendUint32(buf, s.Inception)
	buf = binary.BigEndian.AppendUint16(buf, s.KeyTag)
	return s.SignerName.Canonical().AppendWire(buf)
}

// DNSKEY is the decoded RDATA of a DNSKEY record (RFC 4034, Section 2.1).
type DNSKEY struct {
	Flags     uint16
	Protocol  uint8
	Algorithm uint8
	PublicKey []byte
}

// ParseDNSKEY decodes DNSKEY RDATA from wire form.
func ParseDNSKEY(data []byte) (DNSKEY, error) {
	if len(data) < 4 {
		return DNSKEY{}, fmt.Errorf("dnskey rdata of %d octets: %w", len(data), domain.ErrShortBuffer)
	}
	return DNSKEY{
		Flags:     binary.BigEndian.Uint16(data[0:2]),
		Protocol:  data[2],
		Algorithm: data[3],
		PublicKey: append([]byte(nil), data[4:]...),
	}, nil
}

// Zone reports the zone-key flag; keys without it never sign record sets.
func (k DNSKEY) Zone() bool { return k.Flags&0x0100 != 0 }

// Revoked reports the RFC 5011 revocation flag.
func (k DNSKEY) Revoked() bool { return k.Flags&0x0080 != 0 }

// SecureEntryPoint reports the SEP flag.
func (k DNSKEY) SecureEntryPoint() bool { return k.Flags&0x0001 != 0 }

func (k DNSKEY) encode() []byte {
	buf := make([]byte, 0, 4+len(k.PublicKey))
	buf = binary.BigEndian.AppendUint16(buf, k.Flags)
	buf = append(buf, k.Protocol, k.Algorithm)
	return append(buf, k.PublicKey...)
}

// KeyTag computes the key tag used by RRSIG and DS records to pick a
// candidate key (RFC 4034, Appendix B).
func (k DNSKEY) KeyTag() uint16 {
	var ac uint32
	for i, b := range k.encode() {
		if i&1 != 0 {
			ac += uint32(b)
		} else {
			ac += uint32(b) << 8
		}
	}
	ac += (ac >> 16) & 0xFFFF
	return uint16(ac & 0xFFFF)
}

// verifySignature checks signature over signed using the public key.
func (k DNSKEY) verifySignature(signed, signature []byte) error {
	switch k.Algorithm {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1:
		return k.verifyRSA(crypto.SHA1, signed, signature)
	case AlgRSASHA256:
		return k.verifyRSA(crypto.SHA256, signed, signature)
	case AlgRSASHA512:
		return k.verifyRSA(crypto.SHA512, signed, signature)
	case AlgECDSAP256SHA256:
		return k.verifyECDSAP256(signed, signature)
	default:
		return fmt.Errorf("%w: algorithm %d", ErrUnsupportedAlgorithm, k.Algorithm)
	}
}

// verifyRSA checks a PKCS#1 v1.5 signature against the RFC 3110 key encoding:
// an exponent length (one octet, or zero followed by a two-octet length), the
// exponent, and the modulus.
func (k DNSKEY) verifyRSA(hash crypto.Hash, signed, signature []byte) error {
	key := k.PublicKey
	if len(key) < 3 {
		return fmt.Errorf("%w: rsa key of %d octets", ErrBadSignature, len(key))
	}
	expLen := int(key[0])
	expStart := 1
	if expLen == 0 {
		expLen = int(binary.BigEndian.Uint16(key[1:3]))
		expStart = 3
	}
	if expStart+expLen >= len(key) {
		return fmt.Errorf("%w: rsa exponent overruns key", ErrBadSignature)
	}
	exponent := new(big.Int).SetBytes(key[expStart : expStart+expLen])
	if !exponent.IsInt64() || exponent.Int64() > int64(1<<31-1) {
		return fmt.Errorf("%w: rsa exponent too large", ErrBadSignature)
	}
	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(key[expStart+expLen:]),
		E: int(exponent.Int64()),
	}

	var digest []byte
	switch hash {
	case crypto.SHA1:
		sum := sha1.Sum(signed)
		digest = sum[:]
	case crypto.SHA256:
		sum := sha256.Sum256(signed)
		digest = sum[:]
	case crypto.SHA512:
		sum := sha512.Sum512(signed)
		digest = sum[:]
	}
	if err := rsa.VerifyPKCS1v15(pub, hash, digest, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// verifyECDSAP256 checks a P-256 signature: the key is the 64-octet X||Y
// point and the signature the 64-octet r||s pair (RFC 6605).
func (k DNSKEY) verifyECDSAP256(signed, signature []byte) error {
	if len(k.PublicKey) != 64 {
		return fmt.Errorf("%w: p256 key of %d octets", ErrBadSignature, len(k.PublicKey))
	}
	if len(signature) != 64 {
		return fmt.Errorf("%w: p256 signature of %d octets", ErrBadSignature, len(signature))
	}
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(k.PublicKey[:32]),
		Y:     new(big.Int).SetBytes(k.PublicKey[32:]),
	}
	digest := sha256.Sum256(signed)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if !ecdsa.Verify(pub, digest[:], r, s) {
		return ErrBadSignature
	}
	return nil
}
