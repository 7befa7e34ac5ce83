package hostapd

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

const (
	asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	hexDigits    = "0123456789abcdef"
)

// ValidationError is returned by the Verify helpers. Its message is shown
// to the operator verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return domain.ErrConfiguration }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// GenerateRandomPassword returns a random ASCII (or lowercase hex) password.
// A positive length wins; otherwise WEP profiles get WEPDefaultStrLength
// characters and everything else MinWPAPSKLength.
func GenerateRandomPassword(securityMode string, length int, hex bool) (string, error) {
	alphabet := asciiLetters
	if hex {
		alphabet = hexDigits
	}

	switch {
	case length > 0:
	case strings.EqualFold(securityMode, WEPString):
		length = WEPDefaultStrLength
	default:
		length = MinWPAPSKLength
	}
	return randomString(alphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random password: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// VerifyInterface fails if iface is empty or not one of valid.
func VerifyInterface(iface string, valid []string) error {
	if iface == "" {
		return invalid("Required wlan interface is missing.")
	}
	if !slices.Contains(valid, iface) {
		return invalid("Invalid interface name was passed: %s", iface)
	}
	return nil
}

// VerifySecurityMode fails if the profile's mode is not in valid. A nil
// profile is open security and is only accepted when valid lists
// SecurityOpen.
func VerifySecurityMode(profile *Security, valid []SecurityMode) error {
	if profile == nil {
		if !slices.Contains(valid, SecurityOpen) {
			return invalid("Open security is not allowed for this profile.")
		}
		return nil
	}
	if !slices.Contains(valid, profile.Mode) {
		return invalid("Invalid Security Mode: %s. Valid Security Modes for this profile: %v.", profile.Mode, valid)
	}
	return nil
}

// VerifyCipher fails if the cipher used by the profile's mode is not in
// valid. WPA checks WPACipher and WPA2 checks WPA2Cipher; any other mode
// is rejected.
func VerifyCipher(profile *Security, valid []Cipher) error {
	if profile == nil {
		return invalid("Security mode is open.")
	}
	switch profile.Mode {
	case SecurityWPA:
		if !slices.Contains(valid, profile.WPACipher) {
			return invalid("Invalid WPA Cipher: %s. Valid WPA Ciphers for this profile: %v", profile.WPACipher, valid)
		}
	case SecurityWPA2:
		if !slices.Contains(valid, profile.WPA2Cipher) {
			return invalid("Invalid WPA2 Cipher: %s. Valid WPA2 Ciphers for this profile: %v", profile.WPA2Cipher, valid)
		}
	default:
		return invalid("Invalid Security Mode: %s", profile.Mode)
	}
	return nil
}
