package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/pktsender/internal/adapters/injection"
	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

func newTestCLI(reg *injection.MockRegistry) (*cli, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &cli{
		stdout:  out,
		stderr:  io.Discard,
		factory: func(bool) ports.InjectorFactory { return reg.Factory },
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, out
}

var arpArgs = []string{
	"-i", "eth0", "-kind", "arp",
	"-p", "src_mac=02:00:00:00:00:01",
	"-p", "src_ipv4=10.0.0.2",
	"-p", "dst_ipv4=10.0.0.1",
	"-interval", "0s",
}

func TestSend_Burst(t *testing.T) {
	reg := injection.NewMockRegistry()
	c, out := newTestCLI(reg)

	err := c.run(context.Background(), append([]string{"send", "-count", "3"}, arpArgs...))
	require.NoError(t, err)

	var res domain.SendResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, domain.KindARP, res.PacketKind)
	assert.NotEmpty(t, res.RunID)

	inj := reg.Get("eth0")
	require.Equal(t, 3, inj.Count())
	assert.True(t, inj.IsClosed())

	pkt := gopacket.NewPacket(inj.GetPackets()[0], layers.LayerTypeEthernet, gopacket.Default)
	arp, ok := pkt.Layer(layers.LayerTypeARP).(*layers.ARP)
	require.True(t, ok)
	assert.Equal(t, []byte{10, 0, 0, 1}, arp.DstProtAddress)
}

func TestSend_DefaultCommand(t *testing.T) {
	reg := injection.NewMockRegistry()
	c, _ := newTestCLI(reg)

	require.NoError(t, c.run(context.Background(), arpArgs))
	assert.Equal(t, 1, reg.Get("eth0").Count())
}

func TestSend_AwaitReply(t *testing.T) {
	inj := injection.NewMockInjector("eth0")
	inj.QueueReply([]byte{0x01})
	c, out := newTestCLI(injection.NewMockRegistry())
	c.factory = func(bool) ports.InjectorFactory {
		return func(string) (ports.FrameInjector, error) { return inj, nil }
	}

	err := c.run(context.Background(), append([]string{"send", "-count", "2", "-await"}, arpArgs...))
	require.NoError(t, err)

	var res domain.SendResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Replies)
}

func TestSend_NamedPacket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controllers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
packets:
  probe:
    kind: ping4
    params:
      interf: wlan0
      src_mac: "02:00:00:00:00:01"
      dst_mac: "02:00:00:00:00:fe"
      src_ipv4: 10.0.0.2
      dst_ipv4: 10.0.0.1
`), 0o600))

	reg := injection.NewMockRegistry()
	c, _ := newTestCLI(reg)
	err := c.run(context.Background(), []string{"send", "-config", path, "-packet", "probe", "-interval", "0s"})
	require.NoError(t, err)

	frames := reg.Get("wlan0").GetPackets()
	require.Len(t, frames, 1)
	pkt := gopacket.NewPacket(frames[0], layers.LayerTypeEthernet, gopacket.Default)
	assert.NotNil(t, pkt.Layer(layers.LayerTypeICMPv4))
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no kind", []string{"send", "-i", "eth0"}},
		{"no interface", []string{"send", "-kind", "arp"}},
		{"bad interface", []string{"send", "-i", "eth0;rm", "-kind", "arp"}},
		{"bad count", append([]string{"send", "-count", "0"}, arpArgs...)},
		{"unknown kind", []string{"send", "-i", "eth0", "-kind", "nope"}},
		{"missing param", []string{"send", "-i", "eth0", "-kind", "arp", "-p", "src_mac=02:00:00:00:00:01"}},
		{"packet without config", []string{"send", "-packet", "probe"}},
		{"bad pair", []string{"send", "-p", "novalue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := injection.NewMockRegistry()
			c, _ := newTestCLI(reg)
			assert.Error(t, c.run(context.Background(), tt.args))
			assert.Nil(t, reg.Get("eth0"))
		})
	}
}

func TestSend_ConfigurationErrorsAreTyped(t *testing.T) {
	c, _ := newTestCLI(injection.NewMockRegistry())
	err := c.run(context.Background(), []string{"send", "-i", "eth0", "-kind", "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownGenerator)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestKinds(t *testing.T) {
	c, out := newTestCLI(injection.NewMockRegistry())
	require.NoError(t, c.run(context.Background(), []string{"kinds"}))
	lines := strings.Fields(out.String())
	assert.Contains(t, lines, "arp")
	assert.Contains(t, lines, "dot3_snap")
}

func TestUnknownCommand(t *testing.T) {
	c, _ := newTestCLI(injection.NewMockRegistry())
	assert.Error(t, c.run(context.Background(), []string{"flood"}))
}

func confLines(out string) map[string]string {
	conf := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, _ := strings.Cut(line, "=")
		conf[k] = v
	}
	return conf
}

func TestHostapd(t *testing.T) {
	t.Run("wpa2 passphrase", func(t *testing.T) {
		c, out := newTestCLI(injection.NewMockRegistry())
		err := c.run(context.Background(), []string{"hostapd", "-mode", "wpa2", "-password", "password123",
			"-i", "wlan0", "-ssid", "lab", "-interfaces", "wlan0,wlan1", "-modes", "wpa2,wpa3", "-ciphers", "CCMP"})
		require.NoError(t, err)
		conf := confLines(out.String())
		assert.Equal(t, "2", conf["wpa"])
		assert.Equal(t, "password123", conf["wpa_passphrase"])
		assert.Equal(t, "CCMP", conf["rsn_pairwise"])
		assert.Equal(t, "wlan0", conf["interface"])
		assert.Equal(t, "lab", conf["ssid"])
	})

	t.Run("derived psk", func(t *testing.T) {
		c, out := newTestCLI(injection.NewMockRegistry())
		err := c.run(context.Background(), []string{"hostapd", "-mode", "wpa2", "-password", "password", "-ssid", "IEEE", "-psk"})
		require.NoError(t, err)
		conf := confLines(out.String())
		assert.Equal(t, "f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e", conf["wpa_psk"])
		assert.NotContains(t, conf, "wpa_passphrase")
	})

	t.Run("generated wep key", func(t *testing.T) {
		c, out := newTestCLI(injection.NewMockRegistry())
		require.NoError(t, c.run(context.Background(), []string{"hostapd", "-mode", "wep"}))
		conf := confLines(out.String())
		// 13 letters, quoted
		assert.Len(t, conf["wep_key0"], 15)
	})

	t.Run("open", func(t *testing.T) {
		c, out := newTestCLI(injection.NewMockRegistry())
		require.NoError(t, c.run(context.Background(), []string{"hostapd", "-mode", "none", "-ssid", "guest", "-modes", "none"}))
		assert.Equal(t, map[string]string{"ssid": "guest"}, confLines(out.String()))
	})

	t.Run("rejections", func(t *testing.T) {
		cases := map[string][]string{
			"Invalid interface name was passed: wlan9": {"-i", "wlan9", "-interfaces", "wlan0"},
			"Required wlan interface is missing.":      {"-interfaces", "wlan0"},
			"Open security is not allowed":             {"-mode", "none", "-modes", "wpa2"},
			"Invalid WPA2 Cipher: CCMP":                {"-password", "password123", "-ciphers", "GCMP"},
			"Security mode is open.":                   {"-mode", "open", "-ciphers", "CCMP"},
		}
		for want, args := range cases {
			c, _ := newTestCLI(injection.NewMockRegistry())
			err := c.run(context.Background(), append([]string{"hostapd"}, args...))
			require.Error(t, err, want)
			assert.Contains(t, err.Error(), want)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		}
	})
}
