package ecap

import "errors"

// Error taxonomy surfaced by the codec core. Callers should compare with
// errors.Is; wrapped errors (fmt.Errorf("...: %w", ErrX)) keep the identity.
var (
	// ErrCarrierUnrecognized means detection fell through and the chosen
	// backend cannot proceed.
	ErrCarrierUnrecognized = errors.New("ecap: carrier format not recognized")

	// ErrCarrierMalformed means a format-specific structural parse failed
	// (bad PNG, truncated JPEG markers, bad RIFF header, ...).
	ErrCarrierMalformed = errors.New("ecap: carrier is structurally malformed")

	// ErrCarrierTooSmall means there is insufficient capacity for the header
	// and/or the ciphertext.
	ErrCarrierTooSmall = errors.New("ecap: carrier has insufficient capacity")

	// ErrJpegSegmentOverflow means header+ciphertext exceeds the 65,533-byte
	// JPEG segment ceiling.
	ErrJpegSegmentOverflow = errors.New("ecap: payload exceeds maximum JPEG segment size")

	// ErrNoPayload means no header-bearing blob was found in any backend
	// during decode.
	ErrNoPayload = errors.New("ecap: no embedded payload found")

	// ErrBadHeader means the magic mismatched, a length field was
	// inconsistent, or a field was out of range.
	ErrBadHeader = errors.New("ecap: header is invalid")

	// ErrUnsupportedVersion means the header names a header version this
	// implementation does not handle.
	ErrUnsupportedVersion = errors.New("ecap: unsupported header version")

	// ErrKdfUnsupported means the adaptive KDF could not find a workable
	// logN within its floor.
	ErrKdfUnsupported = errors.New("ecap: key derivation parameters unsupported on this host")

	// ErrAuthFail means the GCM tag did not verify: wrong password or
	// tampered data, indistinguishably.
	ErrAuthFail = errors.New("ecap: authentication failed")

	// ErrCancelled means the caller cancelled a cancellable operation
	// (the KDF) before it completed.
	ErrCancelled = errors.New("ecap: operation cancelled")
)
