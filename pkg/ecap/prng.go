package ecap

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// permuteLabel is the ASCII label HMAC'd with the derived key to produce
// the PRNG seed used for the PNG bit-position permutation.
const permuteLabel = "ECAP-PERMUTE"

// prng is a counter-mode HMAC-SHA-256 byte stream. See spec.md §4.4.
type prng struct {
	key    []byte
	ctr    uint32
	buf    [sha256.Size]byte
	bufPos int
}

// newPRNG seeds a stream directly from a 32-byte key. bufPos starts at
// sha256.Size so the first call to nextByte refills.
func newPRNG(key []byte) *prng {
	return &prng{key: key, bufPos: sha256.Size}
}

// permuteKey derives the PRNG seed from the AEAD-derived key, per spec.md
// §4.4: HMAC(derivedKey, "ECAP-PERMUTE").
func permuteKey(derivedKey []byte) []byte {
	mac := hmac.New(sha256.New, derivedKey)
	mac.Write([]byte(permuteLabel))
	return mac.Sum(nil)
}

func (p *prng) refill() {
	mac := hmac.New(sha256.New, p.key)
	var ctrBytes [4]byte
	binary.BigEndian.PutUint32(ctrBytes[:], p.ctr)
	mac.Write(ctrBytes[:])
	copy(p.buf[:], mac.Sum(nil))
	p.ctr++
	p.bufPos = 0
}

func (p *prng) nextByte() byte {
	if p.bufPos >= sha256.Size {
		p.refill()
	}
	b := p.buf[p.bufPos]
	p.bufPos++
	return b
}

// nextU32 concatenates four nextByte calls, most-significant first.
func (p *prng) nextU32() uint32 {
	var b [4]byte
	for i := range b {
		b[i] = p.nextByte()
	}
	return binary.BigEndian.Uint32(b[:])
}

// fisherYates permutes positions in place using p as the source of
// randomness, per spec.md §4.5's deterministic permutation contract.
func fisherYates(positions []bitPosition, p *prng) {
	for i := len(positions) - 1; i >= 1; i-- {
		j := p.nextU32() % uint32(i+1)
		positions[i], positions[j] = positions[j], positions[i]
	}
}
