package ecap

import (
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// DefaultLogN is the preferred scrypt log2(N) attempted on encode before the
// adaptive step-down begins.
const DefaultLogN = 15

// MinLogN is the floor below which KdfAdaptive gives up and returns
// ErrKdfUnsupported.
const MinLogN = 12

const (
	kdfR           = 8
	kdfP           = 1
	kdfKeyLen      = 32
	kdfMemoryLimit = 512 * 1024 * 1024 // 512 MiB budget per spec.md §4.2
)

// KdfAdaptive derives a 32-byte key from password and salt at
// N=2^DefaultLogN, stepping logN down by one on any scrypt "memory limit" /
// "invalid params" style failure and retrying, stopping at MinLogN. It
// returns the key and the logN actually used. Callers must zeroize the
// returned key once done with it.
func KdfAdaptive(password, salt []byte) (key []byte, logNUsed uint8, err error) {
	for logN := DefaultLogN; logN >= MinLogN; logN-- {
		n := 1 << uint(logN)
		if scryptMemoryCost(n, kdfR, kdfP) > kdfMemoryLimit {
			continue
		}
		key, err = scrypt.Key(password, salt, n, kdfR, kdfP, kdfKeyLen)
		if err == nil {
			return key, uint8(logN), nil
		}
		if !isScryptMemoryError(err) {
			return nil, 0, err
		}
	}
	return nil, 0, ErrKdfUnsupported
}

// KdfFixed derives the 32-byte key at decode time using the exact
// parameters stored in the header. No adaptive retry: the stored logN is
// used verbatim, per spec.md §4.2's determinism contract.
func KdfFixed(password, salt []byte, logN, r, p uint8) ([]byte, error) {
	n := 1 << uint(logN)
	key, err := scrypt.Key(password, salt, n, int(r), int(p), kdfKeyLen)
	if err != nil {
		return nil, fmt.Errorf("ecap: kdf: %w", err)
	}
	return key, nil
}

// scryptMemoryCost estimates scrypt's peak memory use in bytes as
// 128*r*N*p.
func scryptMemoryCost(n, r, p int) int64 {
	return int64(128) * int64(r) * int64(n) * int64(p)
}

// isScryptMemoryError reports whether err is the class of error scrypt.Key
// returns when N/r/p imply a working-set the host cannot satisfy.
func isScryptMemoryError(err error) bool {
	// scrypt does not export a typed error for this condition; match by
	// message, same as the handful of other_examples callers that probe
	// scrypt/bcrypt failures this way.
	msg := err.Error()
	return msg == "scrypt: N must be > 1 and a power of 2" ||
		msg == "scrypt: parameters are too large"
}
