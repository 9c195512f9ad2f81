// Package util holds HTTP plumbing shared by the LLM providers.
package util

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// ProxyConfig overrides the proxy environment. Empty fields fall back to
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
type ProxyConfig struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// NewProxyFunc returns a proxy selector honouring cfg and then the environment
func NewProxyFunc(cfg ProxyConfig) func(*http.Request) (*url.URL, error) {
	if cfg == (ProxyConfig{}) {
		return http.ProxyFromEnvironment
	}

	pc := httpproxy.FromEnvironment()
	if cfg.HTTPProxy != "" {
		pc.HTTPProxy = cfg.HTTPProxy
	}
	if cfg.HTTPSProxy != "" {
		pc.HTTPSProxy = cfg.HTTPSProxy
	}
	if cfg.NoProxy != "" {
		pc.NoProxy = cfg.NoProxy
	}
	proxy := pc.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// NewHTTPClient builds a client with a timeout and the configured proxy
func NewHTTPClient(timeout time.Duration, cfg ProxyConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = NewProxyFunc(cfg)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
