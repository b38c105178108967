package ecap

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectCarrierKindByMagicPNG(t *testing.T) {
	carrier := gradientPNG(t, 4, 4)
	if got := DetectCarrierKind(carrier, ".bin"); got != KindPNG {
		t.Fatalf("expected KindPNG, got %v", got)
	}
}

func TestDetectCarrierKindByMagicJPEG(t *testing.T) {
	if got := DetectCarrierKind(minimalJPEG(), ".bin"); got != KindJPEG {
		t.Fatalf("expected KindJPEG, got %v", got)
	}
}

func TestDetectCarrierKindByMagicWebP(t *testing.T) {
	if got := DetectCarrierKind(minimalWebP(), ".bin"); got != KindWebP {
		t.Fatalf("expected KindWebP, got %v", got)
	}
}

func TestDetectCarrierKindPDFFallsToTrailer(t *testing.T) {
	pdf := append([]byte("%PDF-1.7\n"), []byte("...")...)
	if got := DetectCarrierKind(pdf, ".pdf"); got != KindTrailer {
		t.Fatalf("expected KindTrailer for PDF magic, got %v", got)
	}
}

func TestDetectCarrierKindMagicPrecedesExtension(t *testing.T) {
	// A PNG-signed blob claiming a .jpg extension must still detect as PNG:
	// magic bytes always win over the extension hint.
	carrier := gradientPNG(t, 4, 4)
	if got := DetectCarrierKind(carrier, ".jpg"); got != KindPNG {
		t.Fatalf("expected magic bytes to win over extension, got %v", got)
	}
}

func TestDetectCarrierKindFallsBackToExtension(t *testing.T) {
	unrecognized := []byte("just some plain bytes with no magic")
	cases := map[string]CarrierKind{
		".png":  KindPNG,
		".jpg":  KindJPEG,
		".jpeg": KindJPEG,
		".webp": KindWebP,
		".pdf":  KindTrailer,
		".txt":  KindTrailer,
		"":      KindTrailer,
	}
	for ext, want := range cases {
		if got := DetectCarrierKind(unrecognized, ext); got != want {
			t.Fatalf("ext %q: got %v want %v", ext, got, want)
		}
	}
}

func TestDetectCarrierKindDefaultsToTrailerForUnknownEverything(t *testing.T) {
	if got := DetectCarrierKind([]byte("no magic at all"), ".xyz"); got != KindTrailer {
		t.Fatalf("expected KindTrailer default, got %v", got)
	}
}

func TestEmbedDispatchesToEachBackend(t *testing.T) {
	header := bytes.Repeat([]byte{0xAB}, HeaderSize)
	copy(header[0:4], Magic[:])
	key := testKey(0x20)

	pngOut, err := embed(KindPNG, gradientPNG(t, 16, 16), header, []byte("x"), key, 1, 0)
	if err != nil || len(pngOut) == 0 {
		t.Fatalf("PNG embed: out=%d err=%v", len(pngOut), err)
	}

	jpegOut, err := embed(KindJPEG, minimalJPEG(), header, []byte("x"), key, 1, 0)
	if err != nil || len(jpegOut) == 0 {
		t.Fatalf("JPEG embed: out=%d err=%v", len(jpegOut), err)
	}

	webpOut, err := embed(KindWebP, minimalWebP(), header, []byte("x"), key, 1, 0)
	if err != nil || len(webpOut) == 0 {
		t.Fatalf("WebP embed: out=%d err=%v", len(webpOut), err)
	}

	trailerOut, err := embed(KindTrailer, []byte("blob"), header, []byte("x"), key, 1, 0)
	if err != nil || len(trailerOut) == 0 {
		t.Fatalf("trailer embed: out=%d err=%v", len(trailerOut), err)
	}
}

func TestEmbedRejectsUnrecognizedKind(t *testing.T) {
	if _, err := embed(CarrierKind(99), []byte("x"), make([]byte, HeaderSize), nil, nil, 1, 0); !errors.Is(err, ErrCarrierUnrecognized) {
		t.Fatalf("expected ErrCarrierUnrecognized, got %v", err)
	}
}

func TestExtractBlobRoutesPNGThroughReader(t *testing.T) {
	header := bytes.Repeat([]byte{0xCD}, HeaderSize)
	key := testKey(0x21)
	out, err := pngEmbed(gradientPNG(t, 32, 32), header, []byte("payload"), key, 1, 0)
	if err != nil {
		t.Fatalf("pngEmbed: %v", err)
	}

	gotHeader, reader, blob, err := extractBlob(KindPNG, out, 0)
	if err != nil {
		t.Fatalf("extractBlob: %v", err)
	}
	if !bytes.Equal(gotHeader, header) {
		t.Fatalf("header mismatch")
	}
	if !reader.valid() {
		t.Fatalf("expected a valid pngCiphertextReader for PNG")
	}
	if blob != nil {
		t.Fatalf("expected nil blob for PNG (ciphertext comes from the reader)")
	}
}

func TestExtractBlobRoutesTrailerThroughBlob(t *testing.T) {
	header := bytes.Repeat([]byte{0xCD}, HeaderSize)
	out := trailerEmbed([]byte("carrier"), header, []byte("payload"))

	gotHeader, reader, blob, err := extractBlob(KindTrailer, out, 0)
	if err != nil {
		t.Fatalf("extractBlob: %v", err)
	}
	if !bytes.Equal(gotHeader, header) {
		t.Fatalf("header mismatch")
	}
	if reader.valid() {
		t.Fatalf("expected an invalid pngCiphertextReader for trailer")
	}
	if !bytes.Equal(blob[HeaderSize:], []byte("payload")) {
		t.Fatalf("blob ciphertext mismatch")
	}
}

func TestExtractBlobRejectsUnrecognizedKind(t *testing.T) {
	if _, _, _, err := extractBlob(CarrierKind(99), []byte("x"), 0); !errors.Is(err, ErrCarrierUnrecognized) {
		t.Fatalf("expected ErrCarrierUnrecognized, got %v", err)
	}
}

func TestCarrierKindString(t *testing.T) {
	cases := map[CarrierKind]string{
		KindPNG:         "png",
		KindJPEG:        "jpeg",
		KindWebP:        "webp",
		KindTrailer:     "trailer",
		CarrierKind(99): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("kind %d: got %q want %q", kind, got, want)
		}
	}
}
