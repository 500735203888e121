package httputil

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Fetch limits.
const (
	FetchTimeout     = 30 * time.Second
	DialTimeout      = 10 * time.Second
	MaxFetchRedirect = 10
)

// IsBlockedIP reports whether ip is private, loopback, link-local or unspecified.
func IsBlockedIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// NewSafeClient returns an HTTP client that refuses to connect to, or be
// redirected to, a blocked address.
func NewSafeClient() *http.Client {
	dialer := &net.Dialer{Timeout: DialTimeout}

	return &http.Client{
		Timeout: FetchTimeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := lookupAllowed(ctx, host)
				if err != nil {
					return nil, err
				}
				return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxFetchRedirect {
				return fmt.Errorf("stopped after %d redirects", MaxFetchRedirect)
			}
			_, err := lookupAllowed(req.Context(), req.URL.Hostname())
			return err
		},
	}
}

func lookupAllowed(ctx context.Context, host string) ([]net.IPAddr, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no IP addresses found for host: %s", host)
	}
	for _, ipAddr := range ips {
		if IsBlockedIP(ipAddr.IP) {
			return nil, fmt.Errorf("blocked request to private/loopback IP: %s (%s)", host, ipAddr.IP)
		}
	}
	return ips, nil
}

// NewFetcher returns a function that GETs a URL with client and returns the
// body and its Content-Type. Bodies larger than maxSize bytes are rejected;
// a maxSize of 0 means no limit. The result is assignable to loader.HTTPFetcher.
func NewFetcher(client *http.Client, userAgent string, maxSize int64) func(string) ([]byte, string, error) {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	return func(url string) ([]byte, string, error) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
		if err != nil {
			return nil, "", err
		}
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}

		var body io.Reader = resp.Body
		if maxSize > 0 {
			body = io.LimitReader(resp.Body, maxSize+1)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, "", err
		}
		if maxSize > 0 && int64(len(data)) > maxSize {
			return nil, "", fmt.Errorf("response from %s exceeds %d bytes", url, maxSize)
		}
		return data, resp.Header.Get("Content-Type"), nil
	}
}
