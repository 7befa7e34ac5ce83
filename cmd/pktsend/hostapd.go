package main

import (
	"fmt"
	"sort"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/services/hostapd"
)

// hostapdConf prints the hostapd.conf lines for a security profile after
// checking it against the allowed interfaces, modes and ciphers.
func (c *cli) hostapdConf(args []string) error {
	fs := c.flagSet("hostapd")
	modeName := fs.String("mode", "wpa2", "security mode: none, wep, wpa, wpa2, wpa/wpa2, wpa3, wpa2/wpa3")
	password := fs.String("password", "", "passphrase or key; generated when empty")
	length := fs.Int("length", 0, "generated password length")
	hexPw := fs.Bool("hex", false, "generate a hex password")
	ssid := fs.String("ssid", "", "network name")
	psk := fs.Bool("psk", false, "write the derived wpa_psk instead of the passphrase")
	iface := fs.String("i", "", "wlan interface")
	allowedIfaces := fs.String("interfaces", "", "comma separated interfaces the profile may use")
	allowedModes := fs.String("modes", "", "comma separated security modes the profile may use")
	allowedCiphers := fs.String("ciphers", "", "comma separated ciphers the profile may use")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := hostapd.ParseSecurityMode(*modeName)
	if err != nil {
		return err
	}

	var profile *hostapd.Security
	if mode != hostapd.SecurityOpen {
		pw := *password
		if pw == "" {
			if pw, err = hostapd.GenerateRandomPassword(mode.String(), *length, *hexPw); err != nil {
				return err
			}
			fmt.Fprintf(c.stderr, "generated password: %s\n", pw)
		}
		profile = hostapd.NewSecurity(mode, pw)
	}

	if *allowedIfaces != "" {
		if err := hostapd.VerifyInterface(*iface, splitList(*allowedIfaces)); err != nil {
			return err
		}
	}
	if *allowedModes != "" {
		var modes []hostapd.SecurityMode
		for _, raw := range splitList(*allowedModes) {
			m, err := hostapd.ParseSecurityMode(raw)
			if err != nil {
				return err
			}
			modes = append(modes, m)
		}
		if err := hostapd.VerifySecurityMode(profile, modes); err != nil {
			return err
		}
	}
	if *allowedCiphers != "" {
		var ciphers []hostapd.Cipher
		for _, raw := range splitList(*allowedCiphers) {
			ciphers = append(ciphers, hostapd.Cipher(raw))
		}
		if err := hostapd.VerifyCipher(profile, ciphers); err != nil {
			return err
		}
	}

	if *psk && profile != nil && mode != hostapd.SecurityWEP {
		if *ssid == "" {
			return &domain.MissingFieldError{Field: "ssid"}
		}
		if profile.Password, err = hostapd.DerivePSK(profile.Password, *ssid); err != nil {
			return err
		}
	}

	conf, err := profile.HostapdConfig()
	if err != nil {
		return err
	}
	if *iface != "" {
		conf["interface"] = *iface
	}
	if *ssid != "" {
		conf["ssid"] = *ssid
	}
	keys := make([]string, 0, len(conf))
	for k := range conf {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.stdout, "%s=%s\n", k, conf[k])
	}
	return nil
}
