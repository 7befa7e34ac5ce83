// Package hostapd holds hostapd security profiles and the validation
// helpers used when building access point configurations.
package hostapd

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

const (
	WEPString           = "wep"
	WEPDefaultKey       = 0
	WEPDefaultStrLength = 13
	MinWPAPSKLength     = 8
	MaxWPAPassphraseLen = 63
	WPAPSKHexLength     = 64
	pbkdf2Iterations    = 4096
	pmkLength           = 32
)

var (
	wepStrLengths = []int{5, 13, 16}
	wepHexLengths = []int{10, 26, 32, 58}
)

// SecurityMode is the security family of a profile. The zero value is open.
type SecurityMode int

const (
	SecurityOpen SecurityMode = iota
	SecurityWEP
	SecurityWPA
	SecurityWPA2
	SecurityWPAMixed
	SecurityWPA3
	SecurityWPA2WPA3
)

var securityModeNames = map[SecurityMode]string{
	SecurityOpen:     "none",
	SecurityWEP:      "wep",
	SecurityWPA:      "wpa",
	SecurityWPA2:     "wpa2",
	SecurityWPAMixed: "wpa/wpa2",
	SecurityWPA3:     "wpa3",
	SecurityWPA2WPA3: "wpa2/wpa3",
}

func (m SecurityMode) String() string {
	if s, ok := securityModeNames[m]; ok {
		return s
	}
	return "SecurityMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseSecurityMode maps hostapd style names ("wpa2", "wpa/wpa2", ...)
// onto a SecurityMode. Empty and "none"/"open" are SecurityOpen.
func ParseSecurityMode(raw string) (SecurityMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "open":
		return SecurityOpen, nil
	}
	for m, name := range securityModeNames {
		if strings.EqualFold(raw, name) {
			return m, nil
		}
	}
	return 0, &domain.InvalidFieldError{Field: "security_mode", Value: raw}
}

// Cipher is a WPA pairwise cipher suite as hostapd names it.
type Cipher string

const (
	CipherTKIP    Cipher = "TKIP"
	CipherCCMP    Cipher = "CCMP"
	CipherGCMP    Cipher = "GCMP"
	CipherCCMP256 Cipher = "CCMP-256"
	CipherGCMP256 Cipher = "GCMP-256"
)

// Security is the security profile of an access point. A nil *Security
// means an open network.
type Security struct {
	Mode       SecurityMode
	Password   string
	WPACipher  Cipher
	WPA2Cipher Cipher
}

// NewSecurity builds a profile with the default ciphers for mode.
func NewSecurity(mode SecurityMode, password string) *Security {
	return &Security{
		Mode:       mode,
		Password:   password,
		WPACipher:  CipherTKIP,
		WPA2Cipher: CipherCCMP,
	}
}

// wpaBits is the value of hostapd's "wpa" key.
func (s *Security) wpaBits() int {
	switch s.Mode {
	case SecurityWPA:
		return 1
	case SecurityWPA2, SecurityWPA3, SecurityWPA2WPA3:
		return 2
	case SecurityWPAMixed:
		return 3
	}
	return 0
}

// HostapdConfig renders the profile as hostapd.conf keys.
func (s *Security) HostapdConfig() (map[string]string, error) {
	if s == nil || s.Mode == SecurityOpen {
		return map[string]string{}, nil
	}
	if s.Mode == SecurityWEP {
		if !validWEPKey(s.Password) {
			return nil, fmt.Errorf("%w: invalid WEP key length %d", domain.ErrConfiguration, len(s.Password))
		}
		key := s.Password
		if !isHex(key) {
			key = strconv.Quote(key)
		}
		return map[string]string{
			"wep_default_key": strconv.Itoa(WEPDefaultKey),
			"wep_key0":        key,
		}, nil
	}

	if err := validatePassphrase(s.Password); err != nil {
		return nil, err
	}
	ret := map[string]string{"wpa": strconv.Itoa(s.wpaBits())}
	switch s.Mode {
	case SecurityWPA3:
		ret["wpa_key_mgmt"] = "SAE"
		ret["ieee80211w"] = "2"
	case SecurityWPA2WPA3:
		ret["wpa_key_mgmt"] = "WPA-PSK SAE"
		ret["ieee80211w"] = "1"
	default:
		ret["wpa_key_mgmt"] = "WPA-PSK"
	}
	if len(s.Password) == WPAPSKHexLength {
		ret["wpa_psk"] = s.Password
	} else {
		ret["wpa_passphrase"] = s.Password
	}
	if s.Mode == SecurityWPA || s.Mode == SecurityWPAMixed {
		ret["wpa_pairwise"] = string(s.WPACipher)
	}
	if s.wpaBits()&2 != 0 {
		ret["rsn_pairwise"] = string(s.WPA2Cipher)
	}
	return ret, nil
}

func validatePassphrase(psk string) error {
	switch {
	case len(psk) == WPAPSKHexLength:
		if !isHex(psk) {
			return fmt.Errorf("%w: invalid PMK %q", domain.ErrConfiguration, psk)
		}
	case len(psk) < MinWPAPSKLength:
		return fmt.Errorf("%w: WPA passphrases should be at least %d characters", domain.ErrConfiguration, MinWPAPSKLength)
	case len(psk) > MaxWPAPassphraseLen:
		return fmt.Errorf("%w: WPA passphrases cannot be longer than 63 characters (or 64 hex digits)", domain.ErrConfiguration)
	}
	return nil
}

func validWEPKey(key string) bool {
	lengths := wepStrLengths
	if isHex(key) {
		lengths = append(append([]int{}, wepHexLengths...), wepStrLengths...)
	}
	for _, l := range lengths {
		if len(key) == l {
			return true
		}
	}
	return false
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && len(s)%2 == 0
}

// DerivePSK computes the 256-bit WPA pre-shared key for passphrase and ssid
// as lowercase hex, the value hostapd accepts as wpa_psk.
func DerivePSK(passphrase, ssid string) (string, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return "", err
	}
	if len(passphrase) == WPAPSKHexLength {
		return strings.ToLower(passphrase), nil
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(ssid), pbkdf2Iterations, pmkLength, sha1.New)
	return hex.EncodeToString(key), nil
}
