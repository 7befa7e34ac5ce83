package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

// ControllerFile is the YAML description of the senders and of named
// packets that can be referenced by the CLI.
//
//	packet_senders:
//	  - eth0
//	  - interface: wlan0
//	packets:
//	  probe:
//	    kind: arp
//	    params: {interf: eth0, src_mac: get_local, src_ipv4: get_local, dst_ipv4: 10.0.0.1}
type ControllerFile struct {
	PacketSenders []domain.SenderConfig        `yaml:"packet_senders"`
	Packets       map[string]domain.PacketSpec `yaml:"packets"`
}

// LoadControllerFile reads and decodes path. Unknown keys are rejected.
func LoadControllerFile(path string) (*ControllerFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("controller file: %w", err)
	}
	defer f.Close()

	var cf ControllerFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("%w: controller file %s: %v", domain.ErrConfiguration, path, err)
	}
	return &cf, nil
}

// Packet returns the named packet spec.
func (cf *ControllerFile) Packet(name string) (domain.PacketSpec, error) {
	spec, ok := cf.Packets[name]
	if !ok {
		return domain.PacketSpec{}, fmt.Errorf("%w: no packet named %q", domain.ErrConfiguration, name)
	}
	return spec, nil
}

func (cf *ControllerFile) Validate() error {
	var errs []error
	for _, sc := range cf.PacketSenders {
		if err := sc.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	names := make([]string, 0, len(cf.Packets))
	for name := range cf.Packets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if cf.Packets[name].Kind == "" {
			errs = append(errs, &domain.MissingFieldError{Field: "packets." + name + ".kind"})
		}
	}
	return errors.Join(errs...)
}
