package ecap

import "fmt"

// JpegMaxSegmentPayload is the largest header+ciphertext blob that fits in
// a single JPEG APP15 segment: 65,535 minus the 2 length bytes themselves.
const JpegMaxSegmentPayload = 65533

// Capacity returns the maximum plaintext byte length that can be embedded
// in carrier under kind at bitsPerChannel (only meaningful for PNG; ignored
// otherwise). It lets a caller pre-flight a message against a carrier
// without attempting a doomed encode, per SPEC_FULL.md §6.
func Capacity(kind CarrierKind, carrier []byte, bitsPerChannel uint8, maxPixels int) (int, error) {
	switch kind {
	case KindPNG:
		img, err := pngDecode(carrier, maxPixels)
		if err != nil {
			return 0, err
		}
		bits, err := pngCapacityBits(img.Pix, bitsPerChannel)
		if err != nil {
			return 0, err
		}
		return bits / 8, nil
	case KindJPEG:
		return JpegMaxSegmentPayload - HeaderSize, nil
	case KindWebP, KindTrailer:
		// Unbounded beyond what the container format itself can address;
		// the ceiling is the 2^31-1 payload_len limit that ParseHeader
		// enforces (spec.md §3), less the header size.
		return (1 << 31) - 1 - HeaderSize, nil
	default:
		return 0, fmt.Errorf("ecap: capacity: %w", ErrCarrierUnrecognized)
	}
}
