//go:build !linux

package injection

import "fmt"

func NewRawWriter(iface string) (FrameWriter, error) {
	return nil, fmt.Errorf("raw injection only supported on linux")
}
