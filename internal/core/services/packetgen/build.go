package packetgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

type Spec = domain.PacketSpec

type builder func(p Params, opts options, res ports.InterfaceResolver) (*domain.Packet, error)

var builders = map[domain.PacketKind]builder{
	domain.KindARP: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewArpGenerator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(ArpOptions{
			Op:     o.str("op"),
			IPDst:  o.str("ip_dst"),
			IPSrc:  o.str("ip_src"),
			HwSrc:  o.str("hwsrc"),
			HwDst:  o.str("hwdst"),
			EthDst: o.str("eth_dst"),
		})
	},
	domain.KindDHCPOffer: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewDhcpOfferGenerator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(DhcpOfferOptions{ChaddrMAC: o.str("cha_mac"), YourIP: o.str("dst_ip")})
	},
	domain.KindNS: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewNsGenerator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(NsOptions{IPDst: o.str("ip_dst"), EthDst: o.str("eth_dst")})
	},
	domain.KindRA: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewRaGenerator(p, res)
		if err != nil {
			return nil, err
		}
		lifetime, err := o.number("lifetime", 16, 0)
		if err != nil {
			return nil, err
		}
		enableDNS, err := o.flag("enable_dns")
		if err != nil {
			return nil, err
		}
		dnsLifetime, err := o.number("dns_lifetime", 32, 0)
		if err != nil {
			return nil, err
		}
		return g.Generate(RaOptions{
			Lifetime:    uint16(lifetime),
			EnableDNS:   enableDNS,
			DNSLifetime: uint32(dnsLifetime),
			IPDst:       o.str("ip_dst"),
			EthDst:      o.str("eth_dst"),
		})
	},
	domain.KindPing6: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewPing6Generator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(PingOptions{IPDst: o.str("ip_dst"), EthDst: o.str("eth_dst")})
	},
	domain.KindPing4: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewPing4Generator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(PingOptions{IPDst: o.str("ip_dst"), EthDst: o.str("eth_dst")})
	},
	domain.KindMDNS6: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewMdns6Generator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(MdnsOptions{IPDst: o.str("ip_dst"), EthDst: o.str("eth_dst")})
	},
	domain.KindMDNS4: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewMdns4Generator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(MdnsOptions{IPDst: o.str("ip_dst"), EthDst: o.str("eth_dst")})
	},
	domain.KindDot3: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewDot3Generator(p, res)
		if err != nil {
			return nil, err
		}
		return g.Generate(Dot3Options{EthDst: o.str("eth_dst")})
	},
	domain.KindDot3LLC: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewDot3Generator(p, res)
		if err != nil {
			return nil, err
		}
		llc, err := o.llc(DefaultLLCOptions())
		if err != nil {
			return nil, err
		}
		return g.GenerateLLC(llc)
	},
	domain.KindDot3SNAP: func(p Params, o options, res ports.InterfaceResolver) (*domain.Packet, error) {
		g, err := NewDot3Generator(p, res)
		if err != nil {
			return nil, err
		}
		snap := DefaultSNAPOptions()
		if snap.LLCOptions, err = o.llc(snap.LLCOptions); err != nil {
			return nil, err
		}
		oui, err := o.number("oui", 24, 0x00000c)
		if err != nil {
			return nil, err
		}
		snap.OUI = [3]byte{byte(oui >> 16), byte(oui >> 8), byte(oui)}
		code, err := o.number("code", 16, uint64(layers.EthernetTypeIPv4))
		if err != nil {
			return nil, err
		}
		snap.Code = layers.EthernetType(code)
		return g.GenerateSNAP(snap)
	},
}

// Kinds lists the generator names Build accepts.
func Kinds() []domain.PacketKind {
	out := make([]domain.PacketKind, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build constructs the generator named by spec.Kind and generates one frame.
func Build(spec Spec, resolver ports.InterfaceResolver) (*domain.Packet, error) {
	b, ok := builders[domain.PacketKind(strings.ToLower(string(spec.Kind)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownGenerator, spec.Kind)
	}
	params := Params(spec.Params)
	if params == nil {
		params = Params{}
	}
	return b(params, options(spec.Options), resolver)
}

// options are the string-typed overrides of a Spec.
type options map[string]string

func (o options) str(key string) string { return o[key] }

// number parses decimal or 0x-prefixed values.
func (o options) number(key string, bits int, def uint64) (uint64, error) {
	raw, ok := o[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 0, bits)
	if err != nil {
		return 0, &domain.InvalidFieldError{Field: key, Value: raw, Err: err}
	}
	return v, nil
}

func (o options) flag(key string) (bool, error) {
	raw, ok := o[key]
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.InvalidFieldError{Field: key, Value: raw, Err: err}
	}
	return v, nil
}

func (o options) llc(def LLCOptions) (LLCOptions, error) {
	out := def
	out.EthDst = o.str("eth_dst")
	dsap, err := o.number("dsap", 8, uint64(def.DSAP))
	if err != nil {
		return out, err
	}
	ssap, err := o.number("ssap", 8, uint64(def.SSAP))
	if err != nil {
		return out, err
	}
	ctrl, err := o.number("ctrl", 16, uint64(def.Control))
	if err != nil {
		return out, err
	}
	out.DSAP, out.SSAP, out.Control = uint8(dsap), uint8(ssap), uint16(ctrl)
	return out, nil
}
