package ecap

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed on-disk size of the ECAP header record.
const HeaderSize = 60

// Magic identifies an ECAP header.
var Magic = [4]byte{'E', 'C', 'A', 'P'}

// Version is the only header version this implementation understands.
const Version = 0x01

// Flag bits stored in Header.Flags.
const (
	FlagEncrypted  = 1 << 0
	FlagRandomized = 1 << 1
)

// ChannelsMaskRGB is the only channels_mask value this implementation emits
// or accepts: R, G, B (bit 0,1,2), never alpha.
const ChannelsMaskRGB = 0b00000111

// KdfScrypt is the only kdf id this implementation emits or accepts.
const KdfScrypt = 0x01

// Header is the 60-byte self-describing record prefixing every payload. All
// multi-byte integers are big-endian. See spec.md §3 for the exact layout.
type Header struct {
	Version         uint8
	Flags           uint8
	BitsPerChannel  uint8
	ChannelsMask    uint8
	PayloadLen      uint32
	Kdf             uint8
	LogN            uint8
	R               uint8
	P               uint8
	Salt            [16]byte
	IV              [12]byte
	Tag             [16]byte
}

// Serialize writes h into a new 60-byte slice per spec.md §3. It cannot
// fail: Salt, IV and Tag are fixed-size arrays, so their sizes are always
// right, and out-of-range scalar fields are encoded as given (range
// validation is ParseHeader's job).
func (h *Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = h.Version
	buf[5] = h.Flags
	buf[6] = h.BitsPerChannel
	buf[7] = h.ChannelsMask
	binary.BigEndian.PutUint32(buf[8:12], h.PayloadLen)
	buf[12] = h.Kdf
	buf[13] = h.LogN
	buf[14] = h.R
	buf[15] = h.P
	copy(buf[16:32], h.Salt[:])
	copy(buf[32:44], h.IV[:])
	copy(buf[44:60], h.Tag[:])
	return buf
}

// ParseHeader parses the 60-byte header record. It validates magic, version,
// kdf id, bits_per_channel, channels_mask, and logN range per spec.md §3's
// invariants, but it does not validate payload_len against any available
// ciphertext slice — that check belongs to the caller that holds the
// ciphertext.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("ecap: header: %w: need %d bytes, got %d", ErrBadHeader, HeaderSize, len(b))
	}
	if string(b[0:4]) != string(Magic[:]) {
		return nil, fmt.Errorf("ecap: header: %w: bad magic", ErrBadHeader)
	}
	h := &Header{
		Version:        b[4],
		Flags:          b[5],
		BitsPerChannel: b[6],
		ChannelsMask:   b[7],
		PayloadLen:     binary.BigEndian.Uint32(b[8:12]),
		Kdf:            b[12],
		LogN:           b[13],
		R:              b[14],
		P:              b[15],
	}
	copy(h.Salt[:], b[16:32])
	copy(h.IV[:], b[32:44])
	copy(h.Tag[:], b[44:60])

	if h.Version != Version {
		return nil, fmt.Errorf("ecap: header: %w: got version %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Kdf != KdfScrypt {
		return nil, fmt.Errorf("ecap: header: %w: unknown kdf id %d", ErrBadHeader, h.Kdf)
	}
	if h.BitsPerChannel != 1 && h.BitsPerChannel != 2 {
		return nil, fmt.Errorf("ecap: header: %w: bits_per_channel=%d", ErrBadHeader, h.BitsPerChannel)
	}
	if h.ChannelsMask != ChannelsMaskRGB {
		return nil, fmt.Errorf("ecap: header: %w: channels_mask=%#02x", ErrBadHeader, h.ChannelsMask)
	}
	if h.LogN < 12 || h.LogN > 20 {
		return nil, fmt.Errorf("ecap: header: %w: logN=%d out of range", ErrBadHeader, h.LogN)
	}
	if h.R < 1 || h.P < 1 {
		return nil, fmt.Errorf("ecap: header: %w: r=%d p=%d", ErrBadHeader, h.R, h.P)
	}
	if h.PayloadLen > (1<<31)-1 {
		return nil, fmt.Errorf("ecap: header: %w: payload_len=%d too large", ErrBadHeader, h.PayloadLen)
	}
	return h, nil
}
