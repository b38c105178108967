package ecap

import (
	"encoding/binary"
	"fmt"
)

const (
	jpegSOI   = 0xD8
	jpegAPP15 = 0xEF
	jpegSOS   = 0xDA
	jpegEOI   = 0xD9
	jpegRST0  = 0xD0
	jpegRST7  = 0xD7
)

// jpegEmbed inserts a single APP15 segment carrying header||ciphertext
// immediately before the first SOS/EOI/RSTn marker, after every segment
// that precedes it (right after SOI when there are none), per spec.md §4.6.
func jpegEmbed(carrier []byte, header, ciphertext []byte) ([]byte, error) {
	if len(carrier) < 2 || carrier[0] != 0xFF || carrier[1] != jpegSOI {
		return nil, fmt.Errorf("ecap: jpeg: %w: missing SOI", ErrCarrierMalformed)
	}
	blob := make([]byte, 0, len(header)+len(ciphertext))
	blob = append(blob, header...)
	blob = append(blob, ciphertext...)
	if len(blob) > JpegMaxSegmentPayload {
		return nil, fmt.Errorf("ecap: jpeg: %w: use a PNG carrier instead", ErrJpegSegmentOverflow)
	}

	insertAt, err := jpegInsertionPoint(carrier)
	if err != nil {
		return nil, err
	}

	segment := make([]byte, 0, 4+len(blob))
	segment = append(segment, 0xFF, jpegAPP15)
	var lenBytes [2]byte
	binary.BigEndian.PutUint16(lenBytes[:], uint16(len(blob)+2))
	segment = append(segment, lenBytes[:]...)
	segment = append(segment, blob...)

	out := make([]byte, 0, len(carrier)+len(segment))
	out = append(out, carrier[:insertAt]...)
	out = append(out, segment...)
	out = append(out, carrier[insertAt:]...)
	return out, nil
}

// jpegInsertionPoint walks markers from offset 2 and returns the offset of
// the first SOS, EOI, or restart marker — the point after which payload
// data, entropy-coded scans, or the file tail begin.
func jpegInsertionPoint(carrier []byte) (int, error) {
	off := 2
	for off+1 < len(carrier) {
		if carrier[off] != 0xFF {
			return 0, fmt.Errorf("ecap: jpeg: %w: expected marker at offset %d", ErrCarrierMalformed, off)
		}
		marker := carrier[off+1]
		if marker == jpegSOS || marker == jpegEOI || (marker >= jpegRST0 && marker <= jpegRST7) {
			return off, nil
		}
		if off+3 >= len(carrier) {
			return 0, fmt.Errorf("ecap: jpeg: %w: truncated segment header", ErrCarrierMalformed)
		}
		segLen := int(binary.BigEndian.Uint16(carrier[off+2 : off+4]))
		if segLen < 2 {
			return 0, fmt.Errorf("ecap: jpeg: %w: invalid segment length", ErrCarrierMalformed)
		}
		off += 2 + segLen
	}
	return 0, fmt.Errorf("ecap: jpeg: %w: no SOS/EOI marker found", ErrCarrierMalformed)
}

// jpegExtract scans markers the same way jpegEmbed located its insertion
// point and returns the first APP15 segment body whose first four bytes are
// the ECAP magic.
func jpegExtract(carrier []byte) ([]byte, error) {
	if len(carrier) < 2 || carrier[0] != 0xFF || carrier[1] != jpegSOI {
		return nil, fmt.Errorf("ecap: jpeg: %w: missing SOI", ErrCarrierMalformed)
	}
	off := 2
	for off+1 < len(carrier) {
		if carrier[off] != 0xFF {
			break
		}
		marker := carrier[off+1]
		if marker == jpegSOS || marker == jpegEOI || (marker >= jpegRST0 && marker <= jpegRST7) {
			break
		}
		if off+3 >= len(carrier) {
			break
		}
		segLen := int(binary.BigEndian.Uint16(carrier[off+2 : off+4]))
		if segLen < 2 || off+2+segLen > len(carrier) {
			break
		}
		body := carrier[off+4 : off+2+segLen]
		if marker == jpegAPP15 && len(body) >= 4 && string(body[0:4]) == string(Magic[:]) {
			return body, nil
		}
		off += 2 + segLen
	}
	return nil, fmt.Errorf("ecap: jpeg: %w", ErrNoPayload)
}
