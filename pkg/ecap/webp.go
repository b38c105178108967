package ecap

import (
	"encoding/binary"
	"fmt"
)

var (
	riffMagic  = [4]byte{'R', 'I', 'F', 'F'}
	webpMagic  = [4]byte{'W', 'E', 'B', 'P'}
	ecapFourCC = [4]byte{'E', 'C', 'A', 'P'}
)

// webpEmbed appends an ECAP chunk to the RIFF body and rewrites the RIFF
// size, per spec.md §4.7.
func webpEmbed(carrier []byte, header, ciphertext []byte) ([]byte, error) {
	if err := checkRIFFWebP(carrier); err != nil {
		return nil, err
	}
	payload := make([]byte, 0, len(header)+len(ciphertext))
	payload = append(payload, header...)
	payload = append(payload, ciphertext...)

	body := carrier[12:]
	chunk := make([]byte, 0, 8+len(payload)+1)
	chunk = append(chunk, ecapFourCC[:]...)
	var sizeBytes [4]byte
	binary.LittleEndian.PutUint32(sizeBytes[:], uint32(len(payload)))
	chunk = append(chunk, sizeBytes[:]...)
	chunk = append(chunk, payload...)
	if len(payload)%2 != 0 {
		chunk = append(chunk, 0x00)
	}

	newBody := make([]byte, 0, len(body)+len(chunk))
	newBody = append(newBody, body...)
	newBody = append(newBody, chunk...)

	out := make([]byte, 0, 12+len(newBody))
	out = append(out, riffMagic[:]...)
	var riffSize [4]byte
	binary.LittleEndian.PutUint32(riffSize[:], uint32(len(newBody)+4))
	out = append(out, riffSize[:]...)
	out = append(out, webpMagic[:]...)
	out = append(out, newBody...)
	return out, nil
}

// webpExtract iterates RIFF chunks from offset 12 and returns the body of
// the ECAP chunk, if present.
func webpExtract(carrier []byte) ([]byte, error) {
	if err := checkRIFFWebP(carrier); err != nil {
		return nil, err
	}
	off := 12
	for off+8 <= len(carrier) {
		var fourCC [4]byte
		copy(fourCC[:], carrier[off:off+4])
		size := int(binary.LittleEndian.Uint32(carrier[off+4 : off+8]))
		dataStart := off + 8
		if size < 0 || dataStart+size > len(carrier) {
			break
		}
		if fourCC == ecapFourCC {
			return carrier[dataStart : dataStart+size], nil
		}
		off = dataStart + size
		if size%2 != 0 {
			off++
		}
	}
	return nil, fmt.Errorf("ecap: webp: %w", ErrNoPayload)
}

func checkRIFFWebP(carrier []byte) error {
	if len(carrier) < 12 || string(carrier[0:4]) != string(riffMagic[:]) || string(carrier[8:12]) != string(webpMagic[:]) {
		return fmt.Errorf("ecap: webp: %w: missing RIFF/WEBP prefix", ErrCarrierMalformed)
	}
	return nil
}
