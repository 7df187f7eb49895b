package gsmon

import (
	"context"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Restorer is the boundary operation performed between re-probes of a
// recovery episode. Implementations must be safe to call repeatedly.
type Restorer interface {
	Restore(ctx context.Context) error
}

// RestorerFunc adapts a function to the Restorer interface.
type RestorerFunc func(ctx context.Context) error

func (f RestorerFunc) Restore(ctx context.Context) error { return f(ctx) }

// NewRestorer picks the restore action for the given configuration: the
// operator-supplied restore command if one is configured, otherwise a plain
// reconnect against the endpoint.
func NewRestorer(cfg Config, client *http.Client) (Restorer, error) {
	if cfg.RestoreCommand != "" {
		return NewCommandRestorer(cfg.RestoreCommand), nil
	}

	return NewReconnectRestorer(cfg.Endpoint, client, cfg.ProbeTimeout())
}

// ReconnectRestorer drops the probe client's idle connections and re-dials
// the endpoint, so the next re-probe starts from a fresh connection.
type ReconnectRestorer struct {
	client  *http.Client
	addr    string
	timeout time.Duration
}

var _ Restorer = (*ReconnectRestorer)(nil)

// NewReconnectRestorer creates the default restore action for an endpoint.
// A malformed endpoint is a ConfigError.
func NewReconnectRestorer(endpoint string, client *http.Client, timeout time.Duration) (*ReconnectRestorer, error) {
	u, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	return &ReconnectRestorer{
		client:  client,
		addr:    dialAddr(u),
		timeout: timeout,
	}, nil
}

func (r *ReconnectRestorer) Restore(ctx context.Context) error {
	if r.client != nil {
		r.client.CloseIdleConnections()
	}

	d := net.Dialer{Timeout: r.timeout}

	conn, err := d.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return errors.Wrap(err, "failed to re-dial endpoint")
	}

	return conn.Close()
}

// CommandRestorer runs an operator-supplied command as the restore action,
// e.g. a service restart script.
type CommandRestorer struct {
	Argv []string
}

var _ Restorer = (*CommandRestorer)(nil)

// NewCommandRestorer splits the command string on whitespace.
func NewCommandRestorer(command string) *CommandRestorer {
	return &CommandRestorer{Argv: strings.Fields(command)}
}

func (r *CommandRestorer) Restore(ctx context.Context) error {
	if len(r.Argv) == 0 {
		return errors.New("no restore command configured")
	}

	cmd := exec.CommandContext(ctx, r.Argv[0], r.Argv[1:]...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "restore command failed: %s", strings.TrimSpace(string(out)))
	}

	return nil
}
