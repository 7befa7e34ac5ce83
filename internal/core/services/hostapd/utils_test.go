package hostapd

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

var (
	asciiRe = regexp.MustCompile(`^[a-zA-Z]*$`)
	hexRe   = regexp.MustCompile(`^[0-9a-f]*$`)
)

func TestGenerateRandomPassword_Defaults(t *testing.T) {
	tests := []struct {
		name string
		mode string
		hex  bool
		want int
	}{
		{"no mode", "", false, MinWPAPSKLength},
		{"wpa2", "wpa2", false, MinWPAPSKLength},
		{"wep lowercase", "wep", false, WEPDefaultStrLength},
		{"wep uppercase", "WEP", false, WEPDefaultStrLength},
		{"wep hex", "WEP", true, WEPDefaultStrLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw, err := GenerateRandomPassword(tt.mode, 0, tt.hex)
			require.NoError(t, err)
			assert.Len(t, pw, tt.want)
			if tt.hex {
				assert.Regexp(t, hexRe, pw)
			} else {
				assert.Regexp(t, asciiRe, pw)
			}
		})
	}
}

func TestGenerateRandomPassword_ExplicitLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 128).Draw(t, "length")
		mode := rapid.SampledFrom([]string{"", "wep", "WEP", "wpa", "wpa2", "wpa3"}).Draw(t, "mode")
		hex := rapid.Bool().Draw(t, "hex")

		pw, err := GenerateRandomPassword(mode, length, hex)
		if err != nil {
			t.Fatal(err)
		}
		if len(pw) != length {
			t.Fatalf("len = %d, want %d", len(pw), length)
		}
		re := asciiRe
		if hex {
			re = hexRe
		}
		if !re.MatchString(pw) {
			t.Fatalf("password %q has unexpected characters", pw)
		}
	})
}

func TestVerifyInterface(t *testing.T) {
	valid := []string{"wlan0", "wlan1"}

	assert.NoError(t, VerifyInterface("wlan1", valid))

	err := VerifyInterface("", valid)
	assert.EqualError(t, err, "Required wlan interface is missing.")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	err = VerifyInterface("eth0", valid)
	assert.EqualError(t, err, "Invalid interface name was passed: eth0")
}

func TestVerifySecurityMode(t *testing.T) {
	wpa2 := NewSecurity(SecurityWPA2, "password")

	assert.NoError(t, VerifySecurityMode(nil, []SecurityMode{SecurityOpen, SecurityWPA2}))
	assert.NoError(t, VerifySecurityMode(wpa2, []SecurityMode{SecurityWPA2}))

	err := VerifySecurityMode(nil, []SecurityMode{SecurityWPA2})
	assert.EqualError(t, err, "Open security is not allowed for this profile.")

	err = VerifySecurityMode(wpa2, []SecurityMode{SecurityWPA, SecurityWEP})
	assert.EqualError(t, err, "Invalid Security Mode: wpa2. Valid Security Modes for this profile: [wpa wep].")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestVerifyCipher(t *testing.T) {
	tests := []struct {
		name    string
		profile *Security
		valid   []Cipher
		wantErr string
	}{
		{"open", nil, []Cipher{CipherCCMP}, "Security mode is open."},
		{"wpa ok", &Security{Mode: SecurityWPA, WPACipher: CipherTKIP}, []Cipher{CipherTKIP}, ""},
		{"wpa bad", &Security{Mode: SecurityWPA, WPACipher: CipherTKIP}, []Cipher{CipherCCMP},
			"Invalid WPA Cipher: TKIP. Valid WPA Ciphers for this profile: [CCMP]"},
		{"wpa2 ok", &Security{Mode: SecurityWPA2, WPA2Cipher: CipherCCMP}, []Cipher{CipherCCMP, CipherGCMP}, ""},
		{"wpa2 bad", &Security{Mode: SecurityWPA2, WPA2Cipher: CipherTKIP}, []Cipher{CipherCCMP},
			"Invalid WPA2 Cipher: TKIP. Valid WPA2 Ciphers for this profile: [CCMP]"},
		{"wpa3", &Security{Mode: SecurityWPA3, WPA2Cipher: CipherCCMP}, []Cipher{CipherCCMP}, "Invalid Security Mode: wpa3"},
		{"wpa2/wpa3", &Security{Mode: SecurityWPA2WPA3, WPA2Cipher: CipherCCMP}, []Cipher{CipherCCMP}, "Invalid Security Mode: wpa2/wpa3"},
		{"wep", &Security{Mode: SecurityWEP}, []Cipher{CipherCCMP}, "Invalid Security Mode: wep"},
		{"mixed", &Security{Mode: SecurityWPAMixed}, []Cipher{CipherCCMP}, "Invalid Security Mode: wpa/wpa2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyCipher(tt.profile, tt.valid)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}
