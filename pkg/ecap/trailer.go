package ecap

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// trailerSignature is the 6-byte ASCII marker that precedes every trailer
// blob, per spec.md §4.8.
var trailerSignature = []byte("ECAPTR")

// trailerEmbed appends ECAPTR || be32(len) || header || ciphertext to
// carrier. There is no closing sentinel.
func trailerEmbed(carrier []byte, header, ciphertext []byte) []byte {
	blob := make([]byte, 0, len(header)+len(ciphertext))
	blob = append(blob, header...)
	blob = append(blob, ciphertext...)

	out := make([]byte, 0, len(carrier)+6+4+len(blob))
	out = append(out, carrier...)
	out = append(out, trailerSignature...)
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(blob)))
	out = append(out, lenBytes[:]...)
	out = append(out, blob...)
	return out
}

// trailerExtract locates the last occurrence of ECAPTR and reads the
// be32-length-prefixed blob that follows it.
func trailerExtract(carrier []byte) ([]byte, error) {
	idx := bytes.LastIndex(carrier, trailerSignature)
	if idx < 0 {
		return nil, fmt.Errorf("ecap: trailer: %w", ErrNoPayload)
	}
	lenStart := idx + len(trailerSignature)
	if lenStart+4 > len(carrier) {
		return nil, fmt.Errorf("ecap: trailer: %w: truncated length field", ErrCarrierMalformed)
	}
	blobLen := int(binary.BigEndian.Uint32(carrier[lenStart : lenStart+4]))
	blobStart := lenStart + 4
	if blobLen < 0 || blobStart+blobLen > len(carrier) {
		return nil, fmt.Errorf("ecap: trailer: %w: declared length overruns carrier", ErrCarrierMalformed)
	}
	return carrier[blobStart : blobStart+blobLen], nil
}
