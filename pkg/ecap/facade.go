// Package ecap implements the ECAP steganographic codec: it embeds a short
// authenticated-encrypted message inside an ordinary carrier file (PNG,
// JPEG, WebP, or arbitrary binary) and later extracts and decrypts it given
// the original password. See SPEC_FULL.md for the full specification.
package ecap

import (
	"errors"
	"fmt"

	"github.com/Admin12121/encapsula/internal/zeroize"
)

// EncodeOptions configures Encode beyond the mandatory carrier/plaintext/
// password inputs. The zero value is the default: bits-per-channel 1, no
// pixel ceiling override.
type EncodeOptions struct {
	// BitsPerChannel selects how many LSB planes the PNG backend uses per
	// RGB byte. Must be 1 or 2; 0 defaults to 1. Ignored by non-PNG
	// backends, which always embed at one bit per unit.
	BitsPerChannel uint8

	// MaxPixels bounds decoded PNG pixel count to guard memory; 0 uses
	// DefaultMaxPixels.
	MaxPixels int
}

// DefaultMaxPixels is the default ceiling on decoded PNG pixel count
// (256 Mpix), per spec.md §5.
const DefaultMaxPixels = 256 * 1024 * 1024

// Encode embeds plaintext in carrier, returning the modified carrier bytes.
// carrierExt is the carrier's file extension (used only as a detection
// fallback when magic bytes are ambiguous or absent). The password and any
// intermediate key material are zeroized before Encode returns, on every
// exit path.
func Encode(carrier []byte, carrierExt string, plaintext, password []byte, opts EncodeOptions) (output []byte, err error) {
	defer zeroize.Bytes(password)

	bitsPerChannel := opts.BitsPerChannel
	if bitsPerChannel == 0 {
		bitsPerChannel = 1
	}
	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = DefaultMaxPixels
	}

	salt, iv, err := RandomSaltAndIV()
	if err != nil {
		return nil, err
	}

	key, logNUsed, err := KdfAdaptive(password, salt[:])
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(key)

	ciphertext, tag, err := AeadEncrypt(key, iv[:], plaintext)
	if err != nil {
		return nil, err
	}

	kind := DetectCarrierKind(carrier, carrierExt)

	flags := uint8(FlagEncrypted)
	if kind == KindPNG {
		flags |= FlagRandomized
	} else {
		bitsPerChannel = 1
	}
	hdr := &Header{
		Version:        Version,
		Flags:          flags,
		BitsPerChannel: bitsPerChannel,
		ChannelsMask:   ChannelsMaskRGB,
		PayloadLen:     uint32(len(plaintext)),
		Kdf:            KdfScrypt,
		LogN:           logNUsed,
		R:              kdfR,
		P:              kdfP,
		Salt:           salt,
		IV:             iv,
		Tag:            [16]byte{},
	}
	copy(hdr.Tag[:], tag)

	out, err := embed(kind, carrier, hdr.Serialize(), ciphertext, key, bitsPerChannel, maxPixels)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode locates an ECAP header-bearing blob in carrier, trying the backends
// in the fixed order PNG, JPEG, WebP, Trailer (spec.md §4.9), derives the key
// from the header's stored KDF parameters, and returns the decrypted
// plaintext. Password and derived key are zeroized before Decode returns,
// on every exit path.
func Decode(carrier []byte, password []byte) (plaintext []byte, err error) {
	defer zeroize.Bytes(password)

	// Fixed sweep order per spec.md §4.9: PNG always wins if it decodes
	// successfully, regardless of what DetectCarrierKind would report, so
	// that a PNG carrier that also carries a trailer blob returns the PNG
	// payload (spec.md §9).
	order := []CarrierKind{KindPNG, KindJPEG, KindWebP, KindTrailer}

	var lastErr error = ErrNoPayload
	var authErr error
	for _, kind := range order {
		pt, err := decodeBackend(kind, carrier, password)
		if err == nil {
			return pt, nil
		}
		if authErr == nil && errors.Is(err, ErrAuthFail) {
			authErr = err
		}
		lastErr = err
	}
	if authErr != nil {
		return nil, authErr
	}
	return nil, lastErr
}

// decodeBackend attempts a full decode (extract -> parse -> KDF -> AEAD
// decrypt) against exactly one backend, with no fallback of its own.
func decodeBackend(kind CarrierKind, carrier []byte, password []byte) (plaintext []byte, err error) {
	headerBytes, pngReader, blob, err := extractBlob(kind, carrier, DefaultMaxPixels)
	if err != nil {
		return nil, err
	}

	hdr, err := ParseHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	key, err := KdfFixed(password, hdr.Salt[:], hdr.LogN, hdr.R, hdr.P)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(key)

	var ciphertext []byte
	if kind == KindPNG {
		if !pngReader.valid() {
			return nil, fmt.Errorf("ecap: %w", ErrCarrierMalformed)
		}
		ciphertext, err = pngExtractCiphertext(pngReader.pix, pngReader.indices, key, hdr.BitsPerChannel, int(hdr.PayloadLen))
		if err != nil {
			return nil, err
		}
	} else {
		end := HeaderSize + int(hdr.PayloadLen)
		if end > len(blob) {
			return nil, fmt.Errorf("ecap: %w: payload_len overruns extracted blob", ErrBadHeader)
		}
		ciphertext = blob[HeaderSize:end]
	}

	plaintext, err = AeadDecrypt(key, hdr.IV[:], ciphertext, hdr.Tag[:])
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
