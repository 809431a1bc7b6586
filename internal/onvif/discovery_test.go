package onvif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeMatchReply = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsdd="http://schemas.xmlsoap.org/ws/2005/04/discovery">
<soap:Body>
<wsdd:ProbeMatches>
<wsdd:ProbeMatch>
<wsdd:XAddrs>http://192.168.1.11/onvif/device_service</wsdd:XAddrs>
<wsdd:Scopes>onvif://www.onvif.org/name/ACME%20Cam onvif://www.onvif.org/hardware/Model-X</wsdd:Scopes>
</wsdd:ProbeMatch>
</wsdd:ProbeMatches>
</soap:Body>
</soap:Envelope>`

func TestParseProbeMatch(t *testing.T) {
	dev, ok := parseProbeMatch("192.168.1.11", []byte(probeMatchReply))
	require.True(t, ok)

	assert.Equal(t, "192.168.1.11", dev.Address)
	assert.Equal(t, 80, dev.Port)
	assert.Equal(t, "ACME Cam", dev.Name)
	assert.Equal(t, "Model-X", dev.Manufacturer)
	assert.Equal(t, "http://192.168.1.11/onvif/device_service", dev.XAddr)
}

func TestParseProbeMatch_NoXAddrsFails(t *testing.T) {
	_, ok := parseProbeMatch("10.0.0.1", []byte(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body></soap:Body></soap:Envelope>`))
	assert.False(t, ok)
}

func TestParseProbeMatch_MalformedXMLFails(t *testing.T) {
	_, ok := parseProbeMatch("10.0.0.1", []byte("not xml at all"))
	assert.False(t, ok)
}

func TestHostPortFromXAddr(t *testing.T) {
	cases := []struct {
		name     string
		xaddr    string
		fallback string
		wantHost string
		wantPort int
	}{
		{"no explicit port defaults to 80", "http://192.168.1.11/onvif/device_service", "10.0.0.1", "192.168.1.11", 80},
		{"explicit port is honored", "http://192.168.1.11:8080/onvif/device_service", "10.0.0.1", "192.168.1.11", 8080},
		{"empty xaddr falls back", "", "10.0.0.1", "10.0.0.1", 80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host, port := hostPortFromXAddr(tc.xaddr, tc.fallback)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantPort, port)
		})
	}
}

func TestParseScopes(t *testing.T) {
	name, hardware := parseScopes("onvif://www.onvif.org/name/ACME%20Cam onvif://www.onvif.org/hardware/Model-X")
	assert.Equal(t, "ACME Cam", name)
	assert.Equal(t, "Model-X", hardware)
}

func TestIsVirtualAdapter(t *testing.T) {
	assert.True(t, isVirtualAdapter("docker0"))
	assert.True(t, isVirtualAdapter("veth1234"))
	assert.True(t, isVirtualAdapter("lo"))
	assert.False(t, isVirtualAdapter("eth0"))
	assert.False(t, isVirtualAdapter("en0"))
}
