package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/pktsender/internal/config"
	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/services/packetgen"
	"github.com/lcalzada-xor/pktsender/internal/core/services/sender"
)

func (c *cli) send(ctx context.Context, args []string) error {
	fs := c.flagSet("send")
	iface := fs.String("i", "", "interface to send on")
	kind := fs.String("kind", "", "packet generator, see 'pktsend kinds'")
	params := kvFlag{}
	fs.Var(params, "p", "generator parameter key=value (repeatable)")
	overrides := kvFlag{}
	fs.Var(overrides, "o", "per-frame option key=value (repeatable)")
	configPath := fs.String("config", "", "controller file holding named packets")
	packetName := fs.String("packet", "", "named packet from -config")
	count := fs.Int("count", 1, "number of frames to send")
	interval := fs.Duration("interval", time.Second, "pause between frames, and reply timeout with -await")
	await := fs.Bool("await", false, "wait for a reply to every frame")
	mock := fs.Bool("mock", false, "record frames instead of transmitting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count <= 0 {
		return &domain.InvalidFieldError{Field: "count", Value: fmt.Sprint(*count)}
	}
	if *interval < 0 {
		return &domain.InvalidFieldError{Field: "interval", Value: interval.String()}
	}

	spec, err := resolveSpec(*configPath, *packetName)
	if err != nil {
		return err
	}
	if *kind != "" {
		spec.Kind = domain.PacketKind(*kind)
	}
	if spec.Kind == "" {
		return &domain.MissingFieldError{Field: "kind"}
	}
	maps.Copy(spec.Params, params)
	maps.Copy(spec.Options, overrides)

	if *iface == "" {
		*iface = spec.Params[packetgen.KeyInterface]
	}
	if *iface == "" {
		return &domain.MissingFieldError{Field: "i"}
	}
	if err := (domain.SenderConfig{Interface: *iface}).Validate(); err != nil {
		return err
	}
	if _, ok := spec.Params[packetgen.KeyInterface]; !ok {
		spec.Params[packetgen.KeyInterface] = *iface
	}

	pkt, err := packetgen.Build(spec, c.resolver)
	if err != nil {
		return err
	}

	senders, err := sender.Create([]domain.SenderConfig{{Interface: *iface}}, c.factory(*mock), sender.WithLogger(c.log))
	if err != nil {
		return err
	}
	defer sender.Destroy(senders)
	s := senders[0]

	res := domain.SendResult{
		RunID:      uuid.NewString(),
		Interface:  *iface,
		PacketKind: pkt.Kind(),
		Requested:  *count,
	}
	if *await {
		res.Sent, res.Replies, err = s.SendReceiveNTimes(ctx, pkt, *count, *interval)
	} else {
		res.Sent, err = s.SendNTimes(ctx, pkt, *count, *interval)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// resolveSpec returns the named packet from the controller file, or an
// empty spec when no name is given. The maps are always writable copies.
func resolveSpec(configPath, name string) (domain.PacketSpec, error) {
	spec := domain.PacketSpec{}
	if name != "" {
		if configPath == "" {
			return spec, &domain.MissingFieldError{Field: "config"}
		}
		cf, err := config.LoadControllerFile(configPath)
		if err != nil {
			return spec, err
		}
		if spec, err = cf.Packet(name); err != nil {
			return spec, err
		}
	}
	spec.Params = maps.Clone(spec.Params)
	spec.Options = maps.Clone(spec.Options)
	if spec.Params == nil {
		spec.Params = map[string]string{}
	}
	if spec.Options == nil {
		spec.Options = map[string]string{}
	}
	return spec, nil
}
