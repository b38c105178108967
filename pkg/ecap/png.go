package ecap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// headerRGBBytes is the count of RGB byte positions consumed by the 60-byte
// header: 60 bytes * 8 bits, one bit per RGB byte's LSB.
const headerRGBBytes = HeaderSize * 8

// bitPosition is a (byte index into the NRGBA pixel buffer, bit plane)
// pair. plane is always 0 or 1.
type bitPosition struct {
	idx   int
	plane uint8
}

// pngDecode decodes a PNG carrier into a straight-alpha *image.NRGBA pixel
// buffer, palette (and any other non-NRGBA) images normalized onto NRGBA
// per spec.md §4.5. Straight alpha, not Go's alpha-premultiplied
// image.RGBA, is what spec.md §3 means by "the PNG pixel buffer": the RGB
// bytes fed to header/LSB embedding must be the carrier's literal values,
// and converting through image.RGBA's premultiplied model would alter
// those bytes for any pixel with alpha strictly between 0 and 255 (and
// destroy them outright at alpha 0), breaking the "only low bits of RGB
// change" carrier-integrity property for any carrier that actually uses
// its alpha channel.
func pngDecode(carrier []byte, maxPixels int) (*image.NRGBA, error) {
	img, err := png.Decode(bytes.NewReader(carrier))
	if err != nil {
		return nil, fmt.Errorf("ecap: png: %w: %v", ErrCarrierMalformed, err)
	}
	b := img.Bounds()
	if maxPixels > 0 && b.Dx()*b.Dy() > maxPixels {
		return nil, fmt.Errorf("ecap: png: %w: %d pixels exceeds ceiling %d", ErrCarrierTooSmall, b.Dx()*b.Dy(), maxPixels)
	}

	switch src := img.(type) {
	case *image.NRGBA:
		if src.Rect.Min == (image.Point{}) && src.Stride == src.Rect.Dx()*4 {
			return src, nil
		}
		return copyPixRect(src.Pix, src.Stride, b), nil
	case *image.NRGBA64:
		return narrowNRGBA64(src, b), nil
	case *image.RGBA:
		// png.Decode only ever produces *image.RGBA for fully-opaque
		// truecolor input, where every pixel's alpha is 255 and premultiplied
		// therefore equals straight: the bytes can be copied as-is.
		return copyPixRect(src.Pix, src.Stride, b), nil
	case *image.Gray:
		return grayToNRGBA(src, b), nil
	case *image.Gray16:
		return gray16ToNRGBA(src, b), nil
	case *image.Paletted:
		return paletteToNRGBA(src, b), nil
	default:
		return genericToNRGBA(img, b), nil
	}
}

// copyPixRect copies the b-bounded region of a 4-bytes-per-pixel buffer
// into a freshly allocated, tightly-packed *image.NRGBA, byte for byte.
// rowStart gives the byte offset of column 0 of row b.Min.Y+y within pix,
// accounting for both Stride and a non-zero Rect.Min.
func copyPixRect(pix []byte, stride int, b image.Rectangle) *image.NRGBA {
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		rowStart := (b.Min.Y+y)*stride + b.Min.X*4
		dstOff := y * out.Stride
		copy(out.Pix[dstOff:dstOff+rowBytes], pix[rowStart:rowStart+rowBytes])
	}
	return out
}

func narrowNRGBA64(src *image.NRGBA64, b image.Rectangle) *image.NRGBA {
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			srcOff := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			dstOff := out.PixOffset(x, y)
			// NRGBA64 is big-endian 16-bit straight-alpha; take the high byte
			// of each channel, an exact bit-depth reduction with no
			// premultiply involved.
			out.Pix[dstOff+0] = src.Pix[srcOff+0]
			out.Pix[dstOff+1] = src.Pix[srcOff+2]
			out.Pix[dstOff+2] = src.Pix[srcOff+4]
			out.Pix[dstOff+3] = src.Pix[srcOff+6]
		}
	}
	return out
}

func grayToNRGBA(src *image.Gray, b image.Rectangle) *image.NRGBA {
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			off := out.PixOffset(x, y)
			out.Pix[off+0] = v
			out.Pix[off+1] = v
			out.Pix[off+2] = v
			out.Pix[off+3] = 255
		}
	}
	return out
}

func gray16ToNRGBA(src *image.Gray16, b image.Rectangle) *image.NRGBA {
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			off := out.PixOffset(x, y)
			out.Pix[off+0] = v
			out.Pix[off+1] = v
			out.Pix[off+2] = v
			out.Pix[off+3] = 255
		}
	}
	return out
}

// paletteToNRGBA expands a paletted image (color type 3, optionally with a
// tRNS alpha table) into straight-alpha NRGBA by reading each index's
// palette entry directly rather than through it.RGBA(), which avoids the
// alpha-premultiply round trip entirely.
func paletteToNRGBA(src *image.Paletted, b image.Rectangle) *image.NRGBA {
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := src.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
			c := straightNRGBA(src.Palette[idx])
			off := out.PixOffset(x, y)
			out.Pix[off+0] = c.R
			out.Pix[off+1] = c.G
			out.Pix[off+2] = c.B
			out.Pix[off+3] = c.A
		}
	}
	return out
}

// straightNRGBA extracts a color's straight-alpha bytes without going
// through color.Color's alpha-premultiplied RGBA() method wherever the
// concrete type lets us avoid it: Go's PNG decoder builds palette entries
// as color.NRGBA (or color.NRGBA64 for 16-bit), so this is exact for every
// palette produced by png.Decode. The Convert fallback only fires for a
// palette built by some other, non-stdlib decoder.
func straightNRGBA(c color.Color) color.NRGBA {
	switch n := c.(type) {
	case color.NRGBA:
		return n
	case color.NRGBA64:
		return color.NRGBA{R: uint8(n.R >> 8), G: uint8(n.G >> 8), B: uint8(n.B >> 8), A: uint8(n.A >> 8)}
	default:
		return color.NRGBAModel.Convert(c).(color.NRGBA)
	}
}

// genericToNRGBA is the fallback path for a source image type png.Decode
// never actually produces. It goes through At()/RGBA() like the rest of
// the standard library's color conversions do, which is lossy at
// intermediate alpha values; kept only so pngDecode has no unhandled case.
func genericToNRGBA(img image.Image, b image.Rectangle) *image.NRGBA {
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := out.PixOffset(x, y)
			out.Pix[off+0] = c.R
			out.Pix[off+1] = c.G
			out.Pix[off+2] = c.B
			out.Pix[off+3] = c.A
		}
	}
	return out
}

// rgbIndices returns the raster-order list of R,G,B byte offsets into pix,
// skipping A, per spec.md §4.5.
func rgbIndices(pix []byte) []int {
	n := len(pix) / 4
	out := make([]int, 0, n*3)
	for i := 0; i < n; i++ {
		base := i * 4
		out = append(out, base, base+1, base+2)
	}
	return out
}

// payloadPositions builds the (byte_index, plane) position list from the
// RGB indices left after the header, per spec.md §4.5.
func payloadPositions(rgbTail []int, bitsPerChannel uint8) []bitPosition {
	positions := make([]bitPosition, 0, len(rgbTail)*int(bitsPerChannel))
	for _, idx := range rgbTail {
		positions = append(positions, bitPosition{idx: idx, plane: 0})
		if bitsPerChannel == 2 {
			positions = append(positions, bitPosition{idx: idx, plane: 1})
		}
	}
	return positions
}

// pngCapacityBits returns the payload capacity, in bits, for a decoded PNG
// pixel buffer at the given bits-per-channel setting.
func pngCapacityBits(pix []byte, bitsPerChannel uint8) (int, error) {
	indices := rgbIndices(pix)
	if len(indices) < headerRGBBytes {
		return 0, fmt.Errorf("ecap: png: %w: only %d RGB bytes, need %d for header", ErrCarrierTooSmall, len(indices), headerRGBBytes)
	}
	return (len(indices) - headerRGBBytes) * int(bitsPerChannel), nil
}

// setLSB clears and sets the given bit plane of pix[idx].
func setLSB(pix []byte, idx int, plane uint8, bit byte) {
	pix[idx] = (pix[idx] &^ (1 << plane)) | (bit << plane)
}

// getLSB reads the given bit plane of pix[idx].
func getLSB(pix []byte, idx int, plane uint8) byte {
	return (pix[idx] >> plane) & 1
}

// writeBitsMSBFirst writes data's bits, MSB-first byte by byte, into pix at
// the given positions, consuming one position per bit.
func writeBitsMSBFirst(pix []byte, positions []bitPosition, data []byte) {
	pi := 0
	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			v := (b >> uint(bit)) & 1
			pos := positions[pi]
			setLSB(pix, pos.idx, pos.plane, v)
			pi++
		}
	}
}

// readBitsMSBFirst reads n bytes' worth of bits from pix at positions,
// MSB-first, reassembling them into bytes.
func readBitsMSBFirst(pix []byte, positions []bitPosition, n int) []byte {
	out := make([]byte, n)
	pi := 0
	for i := 0; i < n; i++ {
		var b byte
		for bit := 7; bit >= 0; bit-- {
			pos := positions[pi]
			b |= getLSB(pix, pos.idx, pos.plane) << uint(bit)
			pi++
		}
		out[i] = b
	}
	return out
}

// pngEmbed writes header||ciphertext into carrier's pixel data using
// randomized LSB embedding, and re-encodes as PNG. key is the AEAD-derived
// key (used only to seed the permutation, never stored).
func pngEmbed(carrier []byte, header, ciphertext, key []byte, bitsPerChannel uint8, maxPixels int) ([]byte, error) {
	img, err := pngDecode(carrier, maxPixels)
	if err != nil {
		return nil, err
	}
	pix := img.Pix

	indices := rgbIndices(pix)
	if len(indices) < headerRGBBytes {
		return nil, fmt.Errorf("ecap: png: %w", ErrCarrierTooSmall)
	}

	headerBits := make([]bitPosition, headerRGBBytes)
	for i := 0; i < headerRGBBytes; i++ {
		headerBits[i] = bitPosition{idx: indices[i], plane: 0}
	}
	writeBitsMSBFirst(pix, headerBits, header)

	tail := indices[headerRGBBytes:]
	positions := payloadPositions(tail, bitsPerChannel)
	if len(positions) < 8*len(ciphertext) {
		return nil, fmt.Errorf("ecap: png: %w: capacity %d bits, need %d", ErrCarrierTooSmall, len(positions), 8*len(ciphertext))
	}

	p := newPRNG(permuteKey(key))
	fisherYates(positions, p)

	writeBitsMSBFirst(pix, positions[:8*len(ciphertext)], ciphertext)

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("ecap: png: re-encode: %w", err)
	}
	return out.Bytes(), nil
}

// pngExtractHeader reads the 60-byte header back out of a PNG carrier. It
// returns the raw header bytes together with the decoded pixel buffer and
// its RGB index list; the caller parses the header, derives the key, and
// passes these to pngExtractCiphertext for the ciphertext read.
func pngExtractHeader(carrier []byte, maxPixels int) (headerBytes []byte, pix []byte, indices []int, err error) {
	img, err := pngDecode(carrier, maxPixels)
	if err != nil {
		return nil, nil, nil, err
	}
	pix = img.Pix
	indices = rgbIndices(pix)
	if len(indices) < headerRGBBytes {
		return nil, nil, nil, fmt.Errorf("ecap: png: %w", ErrCarrierTooSmall)
	}
	headerBits := make([]bitPosition, headerRGBBytes)
	for i := 0; i < headerRGBBytes; i++ {
		headerBits[i] = bitPosition{idx: indices[i], plane: 0}
	}
	headerBytes = readBitsMSBFirst(pix, headerBits, HeaderSize)
	return headerBytes, pix, indices, nil
}

// pngExtractCiphertext rebuilds the payload position list and permutation
// exactly as pngEmbed did, then reads payloadLen ciphertext bytes.
func pngExtractCiphertext(pix []byte, indices []int, key []byte, bitsPerChannel uint8, payloadLen int) ([]byte, error) {
	tail := indices[headerRGBBytes:]
	positions := payloadPositions(tail, bitsPerChannel)
	if len(positions) < 8*payloadLen {
		return nil, fmt.Errorf("ecap: png: %w: capacity %d bits, need %d", ErrCarrierTooSmall, len(positions), 8*payloadLen)
	}
	p := newPRNG(permuteKey(key))
	fisherYates(positions, p)
	return readBitsMSBFirst(pix, positions[:8*payloadLen], payloadLen), nil
}
