// Command pktsend sends a burst of generated frames from one interface and
// renders hostapd security settings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/lcalzada-xor/pktsender/internal/adapters/injection"
	"github.com/lcalzada-xor/pktsender/internal/adapters/netif"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/core/services/packetgen"
)

const usage = `usage: pktsend [send] -i IFACE -kind KIND [-p key=value]... [-o key=value]... [-count N] [-interval D] [-await]
       pktsend send -config FILE -packet NAME [-i IFACE]
       pktsend hostapd -mode MODE [-password PW | -length N -hex] [-ssid SSID -psk]
       pktsend kinds`

// cli carries the dependencies of every subcommand.
type cli struct {
	stdout   io.Writer
	stderr   io.Writer
	factory  func(mock bool) ports.InjectorFactory
	resolver ports.InterfaceResolver
	log      *slog.Logger
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &cli{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		factory:  injection.NewFactory,
		resolver: netif.NewSystemResolver(),
		log:      logger,
	}
	if err := c.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("pktsend failed", "error", err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return c.send(ctx, args)
	}
	switch args[0] {
	case "send":
		return c.send(ctx, args[1:])
	case "hostapd":
		return c.hostapdConf(args[1:])
	case "kinds":
		for _, k := range packetgen.Kinds() {
			fmt.Fprintln(c.stdout, k)
		}
		return nil
	case "help":
		fmt.Fprintln(c.stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { fmt.Fprintln(c.stderr, usage) }
	return fs
}

// kvFlag collects repeated key=value arguments.
type kvFlag map[string]string

func (f kvFlag) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f kvFlag) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	f[k] = val
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
