package onvif

import (
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gopsutilnet "github.com/shirou/gopsutil/v4/net"
	"golang.org/x/sync/errgroup"
)

const (
	discoveryPort       = 3702
	discoveryDeadline   = 2000 * time.Millisecond
	discoveryConcurrent = 50
)

// Device is one camera found by WS-Discovery.
type Device struct {
	Address      string
	Port         int
	XAddr        string
	Name         string
	Manufacturer string
}

const probeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing" xmlns:wsdd="http://schemas.xmlsoap.org/ws/2005/04/discovery" xmlns:dn="http://www.onvif.org/ver10/network/wsdl">
<soap:Header>
<wsa:MessageID>uuid:%s</wsa:MessageID>
<wsa:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</wsa:To>
<wsa:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</wsa:Action>
</soap:Header>
<soap:Body>
<wsdd:Probe>
<wsdd:Types>dn:NetworkVideoTransmitter</wsdd:Types>
</wsdd:Probe>
</soap:Body>
</soap:Envelope>`

// Discover probes every host (A.B.C.1..254) on the primary IPv4 subnet via
// unicast UDP WS-Discovery, up to discoveryConcurrent probes outstanding at
// once, each bounded by discoveryDeadline. Duplicate addresses are dropped
// first-wins.
func Discover(ctx context.Context) ([]Device, error) {
	subnet, err := primaryIPv4Subnet()
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(discoveryConcurrent)

	var mu sync.Mutex
	seen := make(map[string]bool)
	var devices []Device

	for host := 1; host <= 254; host++ {
		addr := fmt.Sprintf("%s.%d", subnet, host)
		g.Go(func() error {
			dev, ok := probeOne(gctx, addr)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[dev.Address] {
				return nil
			}
			seen[dev.Address] = true
			devices = append(devices, dev)
			return nil
		})
	}

	_ = g.Wait() // individual probe failures (timeout, no reply) are not errors

	return devices, nil
}

// probeOne sends one WS-Discovery Probe to addr:3702 and waits up to
// discoveryDeadline for a reply.
func probeOne(ctx context.Context, addr string) (Device, bool) {
	ctx, cancel := context.WithTimeout(ctx, discoveryDeadline)
	defer cancel()

	raddr := fmt.Sprintf("%s:%d", addr, discoveryPort)
	udpAddr, err := net.ResolveUDPAddr("udp4", raddr)
	if err != nil {
		return Device{}, false
	}

	conn, err := net.DialUDP("udp4", nil, udpAddr)
	if err != nil {
		return Device{}, false
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	probe := fmt.Sprintf(probeTemplate, uuid.NewString())
	if _, err := conn.Write([]byte(probe)); err != nil {
		return Device{}, false
	}

	buf := make([]byte, 65536)
	n, err := conn.Read(buf)
	if err != nil {
		return Device{}, false
	}

	return parseProbeMatch(addr, buf[:n])
}

// parseProbeMatch walks a ProbeMatches reply descendant-first, taking the
// first XAddrs token and the name/hardware scopes it carries.
func parseProbeMatch(fallbackAddress string, raw []byte) (Device, bool) {
	var root xmlNode
	if err := xml.Unmarshal(raw, &root); err != nil {
		return Device{}, false
	}

	xaddrsNode, ok := findDescendantFirst(root, "XAddrs")
	if !ok {
		return Device{}, false
	}

	xaddrs := strings.Fields(xaddrsNode.Content)
	if len(xaddrs) == 0 {
		return Device{}, false
	}
	xaddr := xaddrs[0]

	host, port := hostPortFromXAddr(xaddr, fallbackAddress)

	var name, hardware string
	if scopesNode, ok := findDescendantFirst(root, "Scopes"); ok {
		name, hardware = parseScopes(scopesNode.Content)
	}

	return Device{
		Address:      host,
		Port:         port,
		XAddr:        xaddr,
		Name:         name,
		Manufacturer: hardware,
	}, true
}

// hostPortFromXAddr extracts host/port from the first XAddrs URL. Port 80
// is used when the URL has no explicit port, and the probed address (with
// port 80) when the URL has no host.
func hostPortFromXAddr(xaddr, fallback string) (string, int) {
	rest := xaddr
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return fallback, 80
	}
	if host, portStr, err := net.SplitHostPort(rest); err == nil {
		port := atoi(portStr)
		if port == 0 {
			port = 80
		}
		return host, port
	}
	return rest, 80
}

// virtualAdapterPrefixes are interface name prefixes treated as virtual
// (containers, bridges, VPNs) rather than the host's primary LAN adapter.
var virtualAdapterPrefixes = []string{"docker", "veth", "br-", "virbr", "lo", "tun", "tap", "wg"}

// primaryIPv4Subnet returns the "A.B.C" prefix of the host's primary
// non-loopback IPv4 address. Interfaces are ranked via gopsutil, which
// surfaces adapter flags/names uniformly across platforms, preferring an
// "up" adapter whose name doesn't match a known virtual-adapter prefix; the
// actual address and subnet-mask arithmetic is done with stdlib net, since
// gopsutil reports addresses as plain CIDR strings.
func primaryIPv4Subnet() (string, error) {
	ifaces, err := gopsutilnet.Interfaces()
	if err != nil {
		return stdlibPrimaryIPv4Subnet()
	}

	if subnet, ok := pickSubnetFromInterfaces(ifaces); ok {
		return subnet, nil
	}

	return stdlibPrimaryIPv4Subnet()
}

func pickSubnetFromInterfaces(ifaces []gopsutilnet.InterfaceStat) (string, bool) {
	for _, iface := range ifaces {
		if isVirtualAdapter(iface.Name) || !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, addr := range iface.Addrs {
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			parts := strings.Split(ip4.String(), ".")
			if len(parts) != 4 {
				continue
			}
			return strings.Join(parts[:3], "."), true
		}
	}
	return "", false
}

func isVirtualAdapter(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualAdapterPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

// stdlibPrimaryIPv4Subnet is the fallback used when gopsutil's interface
// enumeration fails or finds nothing usable.
func stdlibPrimaryIPv4Subnet() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		parts := strings.Split(ip4.String(), ".")
		if len(parts) != 4 {
			continue
		}
		return strings.Join(parts[:3], "."), nil
	}

	return "", fmt.Errorf("no primary IPv4 address found")
}
