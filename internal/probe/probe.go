package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/zpix/proxyscore/internal/model"
)

// DefaultEndpoint echoes the caller's public IP in the response body.
// Plain http so non-CONNECT proxies can relay it too.
const DefaultEndpoint = "http://api.ipify.org"

const maxResponseBody = 4096

// ipPattern matches the first IPv4 or IPv6 literal in a response body.
var ipPattern = regexp.MustCompile(
	`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b|` +
		`\b(?:[A-Fa-f0-9]{1,4}:){7}[A-Fa-f0-9]{1,4}\b`)

// Prober issues one outbound HTTP request through a candidate proxy to
// discover the proxy's effective public IP. One attempt per call; retry
// policy, if any, belongs to the caller.
type Prober struct {
	// ProxyType selects the transport: "http" (CONNECT/relay) or "socks5".
	ProxyType string

	// Endpoint is the what-is-my-IP URL. Defaults to DefaultEndpoint.
	Endpoint string

	// Timeout bounds the whole probe when the caller's context carries no
	// earlier deadline.
	Timeout time.Duration
}

// New returns a Prober for the given proxy type with the given per-probe timeout.
func New(proxyType string, timeout time.Duration) *Prober {
	return &Prober{
		ProxyType: proxyType,
		Endpoint:  DefaultEndpoint,
		Timeout:   timeout,
	}
}

// Probe routes one GET through the descriptor's proxy and returns the public
// IP the echo endpoint saw. Failures come back as *Error with the Kind set.
func (p *Prober) Probe(ctx context.Context, d model.ProxyDescriptor) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	client, err := p.buildClient(d)
	if err != nil {
		return "", &Error{Kind: ConnectFailed, Proxy: d.HostPort(), Err: err}
	}
	defer client.CloseIdleConnections()

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &Error{Kind: ConnectFailed, Proxy: d.HostPort(), Err: err}
	}
	req.Header.Set("Connection", "close")

	resp, err := client.Do(req)
	if err != nil {
		return "", classify(d, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusProxyAuthRequired {
		return "", &Error{
			Kind:  AuthFailed,
			Proxy: d.HostPort(),
			Err:   fmt.Errorf("proxy rejected credentials (status %d)", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", classify(d, err)
	}

	ip := ExtractIP(string(body))
	if ip == "" {
		return "", &Error{
			Kind:  MalformedResponse,
			Proxy: d.HostPort(),
			Err:   fmt.Errorf("no IP literal in %d-byte response", len(body)),
		}
	}
	return ip, nil
}

// ExtractIP returns the first valid IP literal found in s, or "".
func ExtractIP(s string) string {
	candidate := ipPattern.FindString(s)
	if candidate == "" || net.ParseIP(candidate) == nil {
		return ""
	}
	return candidate
}

// classify maps a transport-level error onto a probe Error kind.
func classify(d model.ProxyDescriptor, err error) *Error {
	out := &Error{Proxy: d.HostPort(), Err: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.Kind = Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		out.Kind = Timeout
	case strings.Contains(err.Error(), "Proxy Authentication Required"),
		strings.Contains(err.Error(), "407"):
		// CONNECT tunnels surface the 407 inside the transport error.
		out.Kind = AuthFailed
	default:
		out.Kind = ConnectFailed
	}
	return out
}

// buildClient constructs an *http.Client routed through the descriptor,
// either as an HTTP proxy or as a SOCKS5 dialer.
func (p *Prober) buildClient(d model.ProxyDescriptor) (*http.Client, error) {
	if p.ProxyType == "socks5" {
		return buildSOCKS5Client(d)
	}
	return buildHTTPClient(d)
}

func buildHTTPClient(d model.ProxyDescriptor) (*http.Client, error) {
	u := &url.URL{
		Scheme: "http",
		Host:   d.HostPort(),
	}
	if d.HasAuth() {
		u.User = url.UserPassword(d.Username, d.Password)
	}

	transport := &http.Transport{
		Proxy: http.ProxyURL(u),
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	// No client Timeout: the per-probe context deadline dominates.
	return &http.Client{Transport: transport}, nil
}

func buildSOCKS5Client(d model.ProxyDescriptor) (*http.Client, error) {
	var auth *proxy.Auth
	if d.HasAuth() {
		auth = &proxy.Auth{User: d.Username, Password: d.Password}
	}

	dialer, err := proxy.SOCKS5("tcp", d.HostPort(), auth, &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	// x/net/proxy exposes Dial only; wrap it for http.Transport.DialContext.
	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		type contextDialer interface {
			DialContext(ctx context.Context, network, address string) (net.Conn, error)
		}
		if cd, ok := dialer.(contextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}

	transport := &http.Transport{
		DialContext:           dialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}, nil
}
