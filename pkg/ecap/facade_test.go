package ecap

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTripPNG(t *testing.T) {
	carrier := gradientPNG(t, 64, 64)
	password := []byte("correct horse battery staple")
	plaintext := []byte("hello")

	out, err := Encode(carrier, ".png", plaintext, append([]byte(nil), password...), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(out, append([]byte(nil), password...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncodeDecodeRoundTripJPEG(t *testing.T) {
	carrier := minimalJPEG()
	password := []byte("jpeg-password")
	plaintext := []byte("x")

	out, err := Encode(carrier, ".jpg", plaintext, append([]byte(nil), password...), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(out, append([]byte(nil), password...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncodeRejectsJPEGOverflow(t *testing.T) {
	carrier := minimalJPEG()
	password := []byte("jpeg-password")
	plaintext := bytes.Repeat([]byte{0x00}, 70000)

	if _, err := Encode(carrier, ".jpg", plaintext, append([]byte(nil), password...), EncodeOptions{}); !errors.Is(err, ErrJpegSegmentOverflow) {
		t.Fatalf("expected ErrJpegSegmentOverflow, got %v", err)
	}
}

func TestEncodeDecodeRoundTripWebP(t *testing.T) {
	carrier := minimalWebP()
	password := []byte("webp-password")
	plaintext := []byte("riff chunk payload")

	out, err := Encode(carrier, ".webp", plaintext, append([]byte(nil), password...), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) <= len(carrier) {
		t.Fatalf("expected output to grow by at least one RIFF chunk")
	}

	got, err := Decode(out, append([]byte(nil), password...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncodeDecodeRoundTripTrailerWithUTF8Payload(t *testing.T) {
	carrier := []byte("an arbitrary binary blob, not a recognized image container")
	password := []byte("trailer-password")
	plaintext := []byte("τëst-🙂")

	out, err := Encode(carrier, ".bin", plaintext, append([]byte(nil), password...), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(out, append([]byte(nil), password...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncodeRejectsPNGCapacityOverflow(t *testing.T) {
	carrier := gradientPNG(t, 64, 64)
	password := []byte("pw")
	capacityBytes := (64*64*3 - 480) / 8
	plaintext := bytes.Repeat([]byte{0x01}, capacityBytes+1)

	if _, err := Encode(carrier, ".png", plaintext, append([]byte(nil), password...), EncodeOptions{}); !errors.Is(err, ErrCarrierTooSmall) {
		t.Fatalf("expected ErrCarrierTooSmall, got %v", err)
	}
}

func TestDecodeWithWrongPasswordFails(t *testing.T) {
	carrier := gradientPNG(t, 64, 64)
	plaintext := []byte("hello")

	out, err := Encode(carrier, ".png", plaintext, []byte("right-password"), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := Decode(out, []byte("wrong-password")); !errors.Is(err, ErrAuthFail) {
		t.Fatalf("expected ErrAuthFail for wrong password, got %v", err)
	}
}

func TestDecodeDetectsTamperedPNGCarrier(t *testing.T) {
	carrier := gradientPNG(t, 64, 64)
	password := []byte("pw")

	out, err := Encode(carrier, ".png", []byte("hello"), append([]byte(nil), password...), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tampered := append([]byte(nil), out...)
	// Flip the low bit of a byte inside the IDAT chunk's compressed data.
	// This corrupts the PNG file itself (the chunk CRC no longer matches),
	// so decode must fail rather than return a plaintext.
	pngDataStart := bytes.Index(tampered, []byte("IDAT"))
	if pngDataStart < 0 {
		t.Fatalf("fixture has no IDAT chunk")
	}
	tampered[pngDataStart+20] ^= 0x01

	if _, err := Decode(tampered, append([]byte(nil), password...)); err == nil {
		t.Fatalf("expected tamper detection to produce an error, got success")
	}
}

func TestDecodeNoEmbeddedPayloadReturnsError(t *testing.T) {
	carrier := gradientPNG(t, 16, 16)
	if _, err := Decode(carrier, []byte("pw")); err == nil {
		t.Fatalf("expected an error decoding a carrier with no embedded payload")
	}
}

func TestCapacityPreflightAgreesWithEncode(t *testing.T) {
	carrier := gradientPNG(t, 32, 32)
	cap, err := Capacity(KindPNG, carrier, 1, 0)
	if err != nil {
		t.Fatalf("Capacity: %v", err)
	}

	exact := bytes.Repeat([]byte{0x03}, cap)
	if _, err := Encode(carrier, ".png", exact, []byte("pw"), EncodeOptions{}); err != nil {
		t.Fatalf("expected Encode to succeed at Capacity()'s reported ceiling, got %v", err)
	}

	overflow := bytes.Repeat([]byte{0x03}, cap+1)
	if _, err := Encode(carrier, ".png", overflow, []byte("pw"), EncodeOptions{}); !errors.Is(err, ErrCarrierTooSmall) {
		t.Fatalf("expected ErrCarrierTooSmall one byte past Capacity(), got %v", err)
	}
}

func TestPNGCarrierWithTrailerBlobStillDecodesAsPNG(t *testing.T) {
	// A carrier that is both a valid PNG with an embedded payload and also
	// carries a trailing blob (e.g. appended after a PNG encode by some
	// other tool) must decode to the PNG payload: the fixed sweep order
	// (PNG, JPEG, WebP, Trailer) always tries PNG first.
	carrier := gradientPNG(t, 64, 64)
	password := []byte("pw")

	pngOut, err := Encode(carrier, ".png", []byte("png-wins"), append([]byte(nil), password...), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	withTrailer := trailerEmbed(pngOut, bytes.Repeat([]byte{0x09}, HeaderSize), []byte("stale-trailer-payload"))

	got, err := Decode(withTrailer, append([]byte(nil), password...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, []byte("png-wins")) {
		t.Fatalf("expected PNG payload to win, got %q", got)
	}
}
