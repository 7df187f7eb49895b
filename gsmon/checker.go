package gsmon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// ProbeReason classifies why a probe failed.
type ProbeReason string

const (
	ReasonTimeout     ProbeReason = "timeout"
	ReasonRefused     ProbeReason = "refused"
	ReasonUnreachable ProbeReason = "unreachable"
	ReasonUnknown     ProbeReason = "unknown"
)

// ProbeResult is the outcome of a single reachability probe. Expected
// network failures are represented here, never as errors.
type ProbeResult struct {
	Reachable bool
	Latency   time.Duration
	Reason    ProbeReason
	Detail    string
	Time      time.Time
}

// Checker performs a single bounded reachability probe.
type Checker interface {
	Check(ctx context.Context) ProbeResult
}

// HTTPChecker probes the endpoint with an HTTP GET, treating any response
// below status 400 as reachable.
type HTTPChecker struct {
	// Client is the HTTP client used for probes. It is shared with the
	// reconnect restorer so a restore can flush its idle connections.
	Client *http.Client

	url     string
	timeout time.Duration
}

var _ Checker = (*HTTPChecker)(nil)

// NewHTTPChecker creates a checker for the given endpoint, which may be a
// host:port pair or a full URL. A malformed endpoint is a ConfigError.
func NewHTTPChecker(endpoint string, timeout time.Duration) (*HTTPChecker, error) {
	u, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	return &HTTPChecker{
		Client:  &http.Client{Timeout: timeout},
		url:     u.String(),
		timeout: timeout,
	}, nil
}

// Check performs one probe. The context bounds the probe in addition to the
// checker's own timeout.
func (c *HTTPChecker) Check(ctx context.Context) ProbeResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return ProbeResult{
			Reason: ReasonUnknown,
			Detail: err.Error(),
			Time:   start,
		}
	}

	resp, err := c.Client.Do(req)
	latency := time.Since(start)

	if err != nil {
		return ProbeResult{
			Latency: latency,
			Reason:  classifyNetErr(err),
			Detail:  err.Error(),
			Time:    start,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ProbeResult{
			Latency: latency,
			Reason:  ReasonUnknown,
			Detail:  fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Time:    start,
		}
	}

	return ProbeResult{
		Reachable: true,
		Latency:   latency,
		Time:      start,
	}
}

// ProbeFunc is an injectable probe primitive shared by the monitor loop and
// the recovery manager.
type ProbeFunc func(ctx context.Context) ProbeResult

// JournaledProbe wraps a checker so that every probe writes an EventProbe.
func JournaledProbe(c Checker, j Journaler, endpoint string) ProbeFunc {
	return func(ctx context.Context) ProbeResult {
		res := c.Check(ctx)

		j.Write(&EventProbe{
			Endpoint:  endpoint,
			Reachable: res.Reachable,
			LatencyMS: float64(res.Latency) / float64(time.Millisecond),
			Reason:    string(res.Reason),
			Detail:    res.Detail,
		})

		return res
	}
}

// normalizeEndpoint parses a host:port pair or URL, defaulting the scheme
// to http as the endpoint format allows both.
func normalizeEndpoint(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, &ConfigError{Field: "Endpoint", Reason: "endpoint is empty"}
	}

	raw := endpoint
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		reason := "no host in endpoint"
		if err != nil {
			reason = err.Error()
		}
		return nil, &ConfigError{Field: "Endpoint", Reason: reason}
	}

	return u, nil
}

// dialAddr returns the endpoint's host:port for raw TCP dialing.
func dialAddr(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}

	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}

	return net.JoinHostPort(u.Hostname(), port)
}

func classifyNetErr(err error) ProbeReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ReasonRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return ReasonUnreachable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonUnreachable
	}

	return ReasonUnknown
}
