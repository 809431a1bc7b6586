package onvif

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmylchreest/camerad/internal/domain"
)

// Client drives the SOAP operations against one ONVIF device-service
// address.
type Client struct {
	soap *soapClient
}

// NewClient builds a Client.
func NewClient() *Client {
	return &Client{soap: newSOAPClient()}
}

const getProfilesBody = `<trt:GetProfiles/>`

func getStreamURIBody(profileToken string) string {
	return fmt.Sprintf(`<trt:GetStreamUri><trt:StreamSetup><tt:Stream>RTP-Unicast</tt:Stream><tt:Transport><tt:Protocol>RTSP</tt:Protocol></tt:Transport></trt:StreamSetup><trt:ProfileToken>%s</trt:ProfileToken></trt:GetStreamUri>`, profileToken)
}

// StreamURI runs the GetProfiles -> GetStreamUri state machine and returns
// the live RTSP URL with credentials injected into the authority.
func (c *Client) StreamURI(ctx context.Context, xaddr string, user, pass *string) (string, error) {
	profilesResp, err := c.soap.call(ctx, xaddr, getProfilesBody, user, pass)
	if err != nil {
		return "", err
	}

	token := extractFirstProfileToken(profilesResp)
	if token == "" {
		return "", domain.New(domain.KindProtocolFailure, "no media profile token found in GetProfiles response")
	}

	streamResp, err := c.soap.call(ctx, xaddr, getStreamURIBody(token), user, pass)
	if err != nil {
		return "", err
	}

	rawURI := extractFirstURI(streamResp)
	if rawURI == "" {
		return "", domain.New(domain.KindProtocolFailure, "no stream uri found in GetStreamUri response")
	}

	return injectCredentials(rawURI, user, pass)
}

// injectCredentials rewrites the URL's authority to carry the camera's
// credentials, URL-encoding the user/pass components.
func injectCredentials(rawURL string, user, pass *string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.Wrap(domain.KindProtocolFailure, "parsing stream uri", err)
	}
	if user != nil && pass != nil {
		u.User = url.UserPassword(*user, *pass)
	}
	return u.String(), nil
}

const getCapabilitiesPTZBody = `<tds:GetCapabilities><tds:Category>PTZ</tds:Category></tds:GetCapabilities>`

// ptzXAddr resolves the PTZ service address from GetCapabilities.
func (c *Client) ptzXAddr(ctx context.Context, deviceXAddr string, user, pass *string) (string, error) {
	resp, err := c.soap.call(ctx, deviceXAddr, getCapabilitiesPTZBody, user, pass)
	if err != nil {
		return "", err
	}
	xaddr := extractPTZXAddr(resp)
	if xaddr == "" {
		return "", domain.New(domain.KindProtocolFailure, "device did not advertise a PTZ service address")
	}
	return xaddr, nil
}

func continuousMoveBody(profileToken string, x, y, zoom float64) string {
	return fmt.Sprintf(`<tptz:ContinuousMove><tptz:ProfileToken>%s</tptz:ProfileToken><tptz:Velocity><tt:PanTilt x="%g" y="%g" xmlns:tt="http://www.onvif.org/ver10/schema"/><tt:Zoom x="%g" xmlns:tt="http://www.onvif.org/ver10/schema"/></tptz:Velocity></tptz:ContinuousMove>`, profileToken, x, y, zoom)
}

func stopMoveBody(profileToken string) string {
	return fmt.Sprintf(`<tptz:Stop><tptz:ProfileToken>%s</tptz:ProfileToken><tptz:PanTilt>true</tptz:PanTilt><tptz:Zoom>true</tptz:Zoom></tptz:Stop>`, profileToken)
}

// ContinuousMove resolves the PTZ service then sends a ContinuousMove
// command. x, y and zoom must be in [-1.0, 1.0].
func (c *Client) ContinuousMove(ctx context.Context, deviceXAddr string, user, pass *string, profileToken string, x, y, zoom float64) error {
	ptzAddr, err := c.ptzXAddr(ctx, deviceXAddr, user, pass)
	if err != nil {
		return err
	}
	_, err = c.soap.call(ctx, ptzAddr, continuousMoveBody(profileToken, x, y, zoom), user, pass)
	return err
}

// StopMove resolves the PTZ service then sends a Stop command for both
// pan/tilt and zoom.
func (c *Client) StopMove(ctx context.Context, deviceXAddr string, user, pass *string, profileToken string) error {
	ptzAddr, err := c.ptzXAddr(ctx, deviceXAddr, user, pass)
	if err != nil {
		return err
	}
	_, err = c.soap.call(ctx, ptzAddr, stopMoveBody(profileToken), user, pass)
	return err
}

const getSystemDateAndTimeBody = `<tds:GetSystemDateAndTime/>`

// GetSystemDateAndTime is ALWAYS sent unauthenticated, regardless of
// whether the camera row carries credentials: this is a deliberate ONVIF
// protocol requirement, not an oversight.
func (c *Client) GetSystemDateAndTime(ctx context.Context, deviceXAddr string) (time.Time, error) {
	resp, err := c.soap.call(ctx, deviceXAddr, getSystemDateAndTimeBody, nil, nil)
	if err != nil {
		return time.Time{}, err
	}

	y, mo, d, h, mi, s, ok := extractUTCDateTime(resp)
	if !ok {
		return time.Time{}, domain.New(domain.KindProtocolFailure, "no UTCDateTime found in GetSystemDateAndTime response")
	}

	return time.Date(y, time.Month(mo), d, h, mi, s, 0, time.UTC), nil
}

func setSystemDateAndTimeBody(when time.Time) string {
	when = when.UTC()
	return fmt.Sprintf(`<tds:SetSystemDateAndTime>
<tds:DateTimeType>Manual</tds:DateTimeType>
<tds:DaylightSavings>false</tds:DaylightSavings>
<tds:TimeZone><tt:TZ xmlns:tt="http://www.onvif.org/ver10/schema">UTC</tt:TZ></tds:TimeZone>
<tds:UTCDateTime>
<tt:Time xmlns:tt="http://www.onvif.org/ver10/schema"><tt:Hour>%d</tt:Hour><tt:Minute>%d</tt:Minute><tt:Second>%d</tt:Second></tt:Time>
<tt:Date xmlns:tt="http://www.onvif.org/ver10/schema"><tt:Year>%d</tt:Year><tt:Month>%d</tt:Month><tt:Day>%d</tt:Day></tt:Date>
</tds:UTCDateTime>
</tds:SetSystemDateAndTime>`, when.Hour(), when.Minute(), when.Second(), when.Year(), int(when.Month()), when.Day())
}

// SetSystemDateAndTime sends the camera's clock to when (UTC), using
// credentials if the camera is configured with them.
func (c *Client) SetSystemDateAndTime(ctx context.Context, deviceXAddr string, user, pass *string, when time.Time) error {
	_, err := c.soap.call(ctx, deviceXAddr, setSystemDateAndTimeBody(when), user, pass)
	return err
}

const getProfilesTokenOnlyBody = getProfilesBody

// FirstProfileToken fetches GetProfiles and returns the first profile
// token, used by PTZ and GetProfiles consumers that just need an entry
// point into the media profile list.
func (c *Client) FirstProfileToken(ctx context.Context, deviceXAddr string, user, pass *string) (string, error) {
	resp, err := c.soap.call(ctx, deviceXAddr, getProfilesTokenOnlyBody, user, pass)
	if err != nil {
		return "", err
	}
	token := extractFirstProfileToken(resp)
	if token == "" {
		return "", domain.New(domain.KindProtocolFailure, "no media profile token found in GetProfiles response")
	}
	return token, nil
}
