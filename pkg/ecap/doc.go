/*
Package ecap hides a short authenticated-encrypted message inside an
ordinary carrier file — PNG, JPEG, WebP, or arbitrary binary — such that the
carrier stays structurally valid, and later recovers it given the original
password.

# Wire format

Every embedded payload is prefixed by a fixed 60-byte header (see Header)
binding the carrier-format parameters, the scrypt KDF parameters actually
used, and the AES-256-GCM authentication tag. The four backends differ only
in where that header||ciphertext blob lives:

	PNG:     scattered across LSBs of RGB pixel bytes, in a keyed permuted
	         order (see fisherYates / prng).
	JPEG:    a single APP15 (0xFFEF) segment inserted after SOI.
	WebP:    an "ECAP" RIFF chunk appended to the body.
	other:   "ECAPTR" || be32(len) || blob appended to the file tail.

# Usage

	out, err := ecap.Encode(carrierBytes, ".png", []byte("secret"), []byte("pw"), ecap.EncodeOptions{})
	...
	msg, err := ecap.Decode(out, []byte("pw"))

Encode and Decode are the only two operations this package needs to expose;
everything else (UI, file I/O, carrier selection) belongs to the caller.
*/
package ecap
