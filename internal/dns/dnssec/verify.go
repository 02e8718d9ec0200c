// Package dnssec verifies RRSIG signatures over record sets under a
// caller-supplied DNSKEY (RFC 4034, RFC 4035). It deliberately stops there:
// no chain-of-trust walking, no denial-of-existence proofs, and no trust
// anchor management, so a successful verification only means the set is
// signed by the given key, not that the key is trustworthy.
package dnssec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/deep-soft/toluol/internal/dns/common/rrdata"
	"github.com/deep-soft/toluol/internal/dns/domain"
)

var (
	// ErrUnsupportedAlgorithm is returned for algorithm codes the verifier
	// cannot check.
	ErrUnsupportedAlgorithm = errors.New("unsupported dnssec algorithm")
	// ErrBadSignature is returned when the cryptographic check fails.
	ErrBadSignature = errors.New("bad signature")
	// ErrExpired is returned when now is past the signature expiration.
	ErrExpired = errors.New("signature expired")
	// ErrNotYetValid is returned when now precedes the signature inception.
	ErrNotYetValid = errors.New("signature not yet valid")
	// ErrRRSetMismatch is returned when the record set and the RRSIG disagree
	// on owner, class, or covered type, or the set is not a single RRset.
	ErrRRSetMismatch = errors.New("rrset does not match rrsig")
	// ErrKeyMismatch is returned when the RRSIG and DNSKEY disagree on key
	// tag, algorithm, or signer name, or the key cannot sign zones.
	ErrKeyMismatch = errors.New("dnskey does not match rrsig")
	// ErrNoSignature is reported by VerifyMessage for record sets that no
	// RRSIG in the message covers.
	ErrNoSignature = errors.New("no covering rrsig")
	// ErrEmptyRRSet is returned for an empty record set.
	ErrEmptyRRSet = errors.New("empty rrset")
)

// RRSet is the group of records sharing owner name (case-folded), class, and
// type (RFC 2181, Section 5).
type RRSet struct {
	Name    domain.Name
	Type    domain.RRType
	Class   domain.RRClass
	Records []domain.ResourceRecord
}

// Group partitions records into RRsets, preserving first-seen order. RRSIG
// records are grouped like any other type; callers that want signatures
// separated filter on Type.
func Group(records []domain.ResourceRecord) []RRSet {
	var sets []RRSet
	index := map[string]int{}
	for _, rr := range records {
		key := fmt.Sprintf("%s|%d|%d", rr.Name.Canonical(), rr.Type, rr.Class)
		if i, ok := index[key]; ok {
			sets[i].Records = append(sets[i].Records, rr)
			continue
		}
		index[key] = len(sets)
		sets = append(sets, RRSet{
			Name:    rr.Name,
			Type:    rr.Type,
			Class:   rr.Class,
			Records: []domain.ResourceRecord{rr},
		})
	}
	return sets
}

// Verify checks that sig covers the given record set under key, evaluated at
// now. The records must form a single RRset matching the RRSIG's owner,
// class, and covered type; the DNSKEY must match the RRSIG's signer name,
// algorithm, and key tag, carry the zone flag, and not be revoked.
func Verify(rrset []domain.ResourceRecord, sigRR, keyRR domain.ResourceRecord, now time.Time) error {
	if len(rrset) == 0 {
		return ErrEmptyRRSet
	}
	if sigRR.Type != domain.RRTypeRRSIG {
		return fmt.Errorf("%w: %s record given as signature", ErrRRSetMismatch, sigRR.Type)
	}
	if keyRR.Type != domain.RRTypeDNSKEY {
		return fmt.Errorf("%w: %s record given as key", ErrKeyMismatch, keyRR.Type)
	}

	sig, err := ParseRRSIG(sigRR.Data)
	if err != nil {
		return err
	}
	key, err := ParseDNSKEY(keyRR.Data)
	if err != nil {
		return err
	}

	owner := rrset[0].Name
	class := rrset[0].Class
	for _, rr := range rrset {
		if rr.Type != sig.TypeCovered || !rr.Name.Equal(owner) || rr.Class != class {
			return fmt.Errorf("%w: set is not a single rrset of the covered type", ErrRRSetMismatch)
		}
	}
	if !sigRR.Name.Equal(owner) || sigRR.Class != class {
		return fmt.Errorf("%w: rrsig owner or class differs", ErrRRSetMismatch)
	}
	if owner.LabelCount() < sig.Labels {
		return fmt.Errorf("%w: owner has fewer labels than rrsig claims", ErrRRSetMismatch)
	}

	if err := checkValidityWindow(sig, now); err != nil {
		return err
	}

	if !sig.SignerName.ZoneOf(owner) {
		return fmt.Errorf("%w: signer is not a parent zone of the owner", ErrKeyMismatch)
	}
	if !sig.SignerName.Equal(keyRR.Name) {
		return fmt.Errorf("%w: signer name differs from key owner", ErrKeyMismatch)
	}
	if sig.Algorithm != key.Algorithm {
		return fmt.Errorf("%w: algorithm differs", ErrKeyMismatch)
	}
	if sig.KeyTag != key.KeyTag() {
		return fmt.Errorf("%w: key tag differs", ErrKeyMismatch)
	}
	if !key.Zone() {
		return fmt.Errorf("%w: key lacks the zone flag", ErrKeyMismatch)
	}
	if key.Revoked() {
		return fmt.Errorf("%w: key is revoked", ErrKeyMismatch)
	}

	signed, err := buildSignedData(rrset, sig)
	if err != nil {
		return err
	}
	return key.verifySignature(signed, sig.Signature)
}

// checkValidityWindow compares now against the inception and expiration
// fields using RFC 1982 serial arithmetic.
func checkValidityWindow(sig RRSIG, now time.Time) error {
	if serialLT(sig.Expiration, sig.Inception) {
		return fmt.Errorf("%w: expiration precedes inception", ErrExpired)
	}
	at := uint32(now.Unix())
	if serialLT(at, sig.Inception) {
		return ErrNotYetValid
	}
	if serialLT(sig.Expiration, at) {
		return ErrExpired
	}
	return nil
}

// serialLT reports s1 < s2 in RFC 1982 serial number arithmetic.
func serialLT(s1, s2 uint32) bool {
	i1, i2 := int64(s1), int64(s2)
	return (i1 < i2 && i2-i1 < 1<<31) || (i1 > i2 && i1-i2 > 1<<31)
}

// buildSignedData assembles the octets the signature covers: the RRSIG RDATA
// without the signature field, then every record of the set in canonical
// form and canonical order (RFC 4034, Sections 3.1.8.1 and 6).
func buildSignedData(rrset []domain.ResourceRecord, sig RRSIG) ([]byte, error) {
	owner := canonicalOwner(rrset[0].Name, sig.Labels)
	ownerWire, err := owner.Encode()
	if err != nil {
		return nil, err
	}

	// Canonicalize every RDATA, sort byte-wise, and drop duplicates: RFC 2181
	// forbids duplicate RRs in a set, and the canonical form must elide them.
	rdatas := make([][]byte, 0, len(rrset))
	for _, rr := range rrset {
		value, err := rrdata.Decode(rr.Type, rr.Data, 0, len(rr.Data))
		if err != nil {
			return nil, err
		}
		value.Canonicalize()
		canonical, err := value.Encode()
		if err != nil {
			return nil, err
		}
		rdatas = append(rdatas, canonical)
	}
	sort.Slice(rdatas, func(i, j int) bool {
		return bytes.Compare(rdatas[i], rdatas[j]) < 0
	})

	signed, err := sig.appendSignedPrefix(nil)
	if err != nil {
		return nil, err
	}
	var prev []byte
	for i, rdata := range rdatas {
		if i > 0 && bytes.Equal(rdata, prev) {
			continue
		}
		prev = rdata
		signed = append(signed, ownerWire...)
		signed = binary.BigEndian.AppendUint16(signed, uint16(sig.TypeCovered))
		signed = binary.BigEndian.AppendUint16(signed, uint16(rrset[0].Class))
		signed = binary.BigEndian.AppendUint32(signed, sig.OriginalTTL)
		signed = binary.BigEndian.AppendUint16(signed, uint16(len(rdata)))
		signed = append(signed, rdata...)
	}
	return signed, nil
}

// canonicalOwner lowercases the owner and, when the RRSIG labels field says
// the answer was synthesized from a wildcard, rebuilds the wildcard owner the
// signature was generated over (RFC 4035, Section 5.3.2).
func canonicalOwner(name domain.Name, sigLabels uint8) domain.Name {
	owner := name.Canonical()
	if owner.LabelCount() > sigLabels {
		owner = owner.StripToLabels(sigLabels).AsWildcard()
	}
	return owner
}

// Result pairs one RRset with its verification outcome.
type Result struct {
	Set RRSet
	Err error
}

// VerifyMessage groups the answer and authority sections of a reply into
// RRsets and verifies each against the RRSIGs found in the same sections,
// all under the one supplied DNSKEY. Sets nothing covers report
// ErrNoSignature; RRSIG sets themselves are skipped.
func VerifyMessage(m *domain.Message, keyRR domain.ResourceRecord, now time.Time) []Result {
	records := m.Records()

	var sigs []domain.ResourceRecord
	var plain []domain.ResourceRecord
	for _, rr := range records {
		if rr.Type == domain.RRTypeRRSIG {
			sigs = append(sigs, rr)
		} else {
			plain = append(plain, rr)
		}
	}

	var results []Result
	for _, set := range Group(plain) {
		res := Result{Set: set, Err: ErrNoSignature}
		for _, sigRR := range sigs {
			sig, err := ParseRRSIG(sigRR.Data)
			if err != nil || sig.TypeCovered != set.Type || !sigRR.Name.Equal(set.Name) {
				continue
			}
			res.Err = Verify(set.Records, sigRR, keyRR, now)
			if res.Err == nil {
				clampTTLs(res.Set.Records, sigRR.TTL, sig, now)
				break
			}
		}
		results = append(results, res)
	}
	return results
}

// clampTTLs caps the TTL of every record in an authenticated set to the
// minimum of the set's received TTL, the RRSIG's TTL, the original TTL, and
// the remaining signature lifetime (RFC 4035, Section 5.3.3).
func clampTTLs(records []domain.ResourceRecord, sigTTL uint32, sig RRSIG, now time.Time) {
	ttl := sig.OriginalTTL
	for _, rr := range records {
		if rr.TTL < ttl {
			ttl = rr.TTL
		}
	}
	if sigTTL < ttl {
		ttl = sigTTL
	}
	if remaining := sig.Expiration - uint32(now.Unix()); remaining < ttl {
		ttl = remaining
	}
	for i := range records {
		records[i].TTL = ttl
	}
}
