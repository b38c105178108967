package ecap

import (
	"bytes"
	"strings"
)

// CarrierKind is the closed set of carrier formats this codec handles.
type CarrierKind int

const (
	KindPNG CarrierKind = iota
	KindJPEG
	KindWebP
	KindTrailer
)

func (k CarrierKind) String() string {
	switch k {
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindWebP:
		return "webp"
	case KindTrailer:
		return "trailer"
	default:
		return "unknown"
	}
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// DetectCarrierKind classifies carrier by magic bytes, falling back to the
// file extension, and finally to the generic trailer backend, per spec.md
// §4.9's detection precedence.
func DetectCarrierKind(carrier []byte, ext string) CarrierKind {
	switch {
	case bytes.HasPrefix(carrier, pngSignature):
		return KindPNG
	case len(carrier) >= 2 && carrier[0] == 0xFF && carrier[1] == jpegSOI:
		return KindJPEG
	case len(carrier) >= 12 && string(carrier[0:4]) == string(riffMagic[:]) && string(carrier[8:12]) == string(webpMagic[:]):
		return KindWebP
	case bytes.HasPrefix(carrier, []byte("%PDF-")):
		return KindTrailer
	default:
		return detectByExtension(ext)
	}
}

func detectByExtension(ext string) CarrierKind {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return KindPNG
	case "jpg", "jpeg":
		return KindJPEG
	case "webp":
		return KindWebP
	case "pdf":
		return KindTrailer
	default:
		return KindTrailer
	}
}

// embed routes to the backend named by kind, building header||ciphertext
// for the formats that need it split and combined differently, and
// enforces each backend's capacity rule without falling back: encode never
// silently switches carriers, per spec.md §4.9.
func embed(kind CarrierKind, carrier, headerBytes, ciphertext, key []byte, bitsPerChannel uint8, maxPixels int) ([]byte, error) {
	switch kind {
	case KindPNG:
		return pngEmbed(carrier, headerBytes, ciphertext, key, bitsPerChannel, maxPixels)
	case KindJPEG:
		return jpegEmbed(carrier, headerBytes, ciphertext)
	case KindWebP:
		return webpEmbed(carrier, headerBytes, ciphertext)
	case KindTrailer:
		return trailerEmbed(carrier, headerBytes, ciphertext), nil
	default:
		return nil, ErrCarrierUnrecognized
	}
}

// extractBlob returns the raw header||ciphertext blob for a specific
// backend, without falling back to another backend. Used both by the
// primary detected-kind attempt and by decode's backend-by-backend
// fallback sweep.
func extractBlob(kind CarrierKind, carrier []byte, maxPixels int) (headerBytes []byte, ciphertextReader pngCiphertextReader, blob []byte, err error) {
	switch kind {
	case KindPNG:
		hdr, pix, indices, err := pngExtractHeader(carrier, maxPixels)
		if err != nil {
			return nil, pngCiphertextReader{}, nil, err
		}
		return hdr, pngCiphertextReader{pix: pix, indices: indices}, nil, nil
	case KindJPEG:
		blob, err := jpegExtract(carrier)
		if err != nil {
			return nil, pngCiphertextReader{}, nil, err
		}
		if len(blob) < HeaderSize {
			return nil, pngCiphertextReader{}, nil, ErrBadHeader
		}
		return blob[:HeaderSize], pngCiphertextReader{}, blob, nil
	case KindWebP:
		blob, err := webpExtract(carrier)
		if err != nil {
			return nil, pngCiphertextReader{}, nil, err
		}
		if len(blob) < HeaderSize {
			return nil, pngCiphertextReader{}, nil, ErrBadHeader
		}
		return blob[:HeaderSize], pngCiphertextReader{}, blob, nil
	case KindTrailer:
		blob, err := trailerExtract(carrier)
		if err != nil {
			return nil, pngCiphertextReader{}, nil, err
		}
		if len(blob) < HeaderSize {
			return nil, pngCiphertextReader{}, nil, ErrBadHeader
		}
		return blob[:HeaderSize], pngCiphertextReader{}, blob, nil
	default:
		return nil, pngCiphertextReader{}, nil, ErrCarrierUnrecognized
	}
}

// pngCiphertextReader carries the decoded pixel buffer and RGB index list
// needed to finish a PNG ciphertext read once the key (derived from the
// header's own KDF params) is known.
type pngCiphertextReader struct {
	pix     []byte
	indices []int
}

func (r pngCiphertextReader) valid() bool {
	return r.pix != nil
}
