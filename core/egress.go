package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pcswitch/logger"
	"pcswitch/models"

	"golang.org/x/net/proxy"
)

// ErrUnsupportedProtocol is returned when the active directive cannot be
// dialed in-process.
var ErrUnsupportedProtocol = errors.New("protocol not supported by native check")

// NativeChecker performs the connectivity check without external programs,
// dialing the config's active directive directly.
type NativeChecker struct {
	config      *Rewriter
	ipURL       string
	geoEndpoint string
	timeout     time.Duration
}

func NewNativeChecker(config *Rewriter, ipEndpoint, geoEndpoint string, timeout time.Duration) *NativeChecker {
	return &NativeChecker{
		config:      config,
		ipURL:       withScheme(ipEndpoint),
		geoEndpoint: strings.TrimSuffix(withScheme(geoEndpoint), "/"),
		timeout:     timeout,
	}
}

// withScheme defaults bare hosts to http, the way curl does.
func withScheme(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}

func proxiedClient(d models.Directive, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{}
	switch d.Protocol {
	case "socks5":
		var auth *proxy.Auth
		if d.User != "" {
			auth = &proxy.Auth{User: d.User, Password: d.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", d.Address(), auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", d.Address(), err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	case "http", "https":
		u := &url.URL{Scheme: d.Protocol, Host: d.Address()}
		if d.User != "" {
			u.User = url.UserPassword(d.User, d.Password)
		}
		transport.Proxy = http.ProxyURL(u)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, d.Protocol)
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

func fetch(ctx context.Context, client *http.Client, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", target, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: unexpected status %s", target, resp.Status)
	}
	return string(body), nil
}

func (p *NativeChecker) Check(ctx context.Context) (models.GeoInfo, error) {
	d, err := p.config.ActiveDirective()
	if err != nil {
		return models.GeoInfo{}, err
	}
	client, err := proxiedClient(d, p.timeout)
	if err != nil {
		return models.GeoInfo{}, err
	}
	logger.Debug("Native check through %s", d)

	out, err := fetch(ctx, client, p.ipURL)
	if err != nil {
		return models.GeoInfo{}, fmt.Errorf("failed to fetch IP address via %s: %w", d.Address(), err)
	}
	ip := strings.TrimSpace(out)
	if ip == "" {
		return models.GeoInfo{}, fmt.Errorf("failed to fetch IP address via %s: empty response", d.Address())
	}
	logger.Info("Egress IP via %s: %s", d.Address(), ip)

	direct := &http.Client{Transport: &http.Transport{}, Timeout: p.timeout}
	body, err := fetch(ctx, direct, p.geoEndpoint+"/"+url.PathEscape(ip))
	if err != nil {
		return models.GeoInfo{}, fmt.Errorf("failed to fetch IP info: %w", err)
	}
	return ParseGeo(body), nil
}
