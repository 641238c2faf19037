package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// OnionSuffix is the top-level label of every onion service address.
	OnionSuffix = ".onion"

	// onionV3Version is the trailing version byte of a v3 address.
	onionV3Version = 0x03

	// onionV3DecodedLen is pubkey (32) + checksum (2) + version (1).
	onionV3DecodedLen = 35
)

// onionV3Pattern matches 56 base32 characters followed by .onion.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is prepended to the key and version before hashing,
// in the v3 onion service address format.
var checksumPrefix = []byte(".onion checksum")

// IsValidV3Address reports whether address is a well-formed v3 onion
// address whose embedded checksum matches its public key.
// The check URL may point at an onion service; a typo there would make
// every readiness attempt fail, so the checksum is verified up front.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	encoded := strings.ToUpper(strings.TrimSuffix(address, OnionSuffix))
	decoded, err := base32.StdEncoding.DecodeString(encoded)
	if err != nil || len(decoded) != onionV3DecodedLen {
		return false
	}

	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}

	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)

	return checksum[0] == sum[0] && checksum[1] == sum[1]
}

// IsOnionHost reports whether host belongs to an onion service.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}
