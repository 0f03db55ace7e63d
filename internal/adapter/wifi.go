package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"homeline/internal/device"
)

// WiFi device constants. The firmware contract is a single POST endpoint
// accepting {"state": "on"|"off"}.
const (
	wifiRequestTimeout = 5 * time.Second
	wifiControlPath    = "/control"

	// breakerConsecutiveFailures trips a host's breaker.
	breakerConsecutiveFailures = 3

	// breakerOpenDuration is how long a tripped host fast-fails before a
	// probe is allowed through.
	breakerOpenDuration = 30 * time.Second
)

// WiFiAdapter controls networked devices over HTTP.
//
// Each host gets its own circuit breaker: a powered-off smart plug should
// fail fast instead of costing every caller (and every automation firing)
// a full 5-second timeout.
type WiFiAdapter struct {
	client *http.Client
	states StateReader
	logger Logger

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker
}

// NewWiFiAdapter creates a WiFi adapter with a bounded-timeout HTTP client.
func NewWiFiAdapter(states StateReader) *WiFiAdapter {
	return &WiFiAdapter{
		client: &http.Client{
			Timeout: wifiRequestTimeout,
		},
		states:   states,
		logger:   noopLogger{},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// SetLogger sets the logger for the adapter.
func (a *WiFiAdapter) SetLogger(logger Logger) {
	a.logger = logger
}

// SetHTTPClient replaces the HTTP client. Tests point it at a local server.
func (a *WiFiAdapter) SetHTTPClient(client *http.Client) {
	a.client = client
}

// On requests the device's active state.
func (a *WiFiAdapter) On(ctx context.Context, d *device.Device) (Result, error) {
	return a.command(ctx, d, device.StateOn)
}

// Off requests the device's inactive state.
func (a *WiFiAdapter) Off(ctx context.Context, d *device.Device) (Result, error) {
	return a.command(ctx, d, device.StateOff)
}

// Toggle resolves current state from the registry and issues the
// complement, same discipline as the bridge adapter.
func (a *WiFiAdapter) Toggle(ctx context.Context, d *device.Device) (Result, error) {
	if !d.IsOutput() {
		return Result{}, fmt.Errorf("%w: command on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}

	current, err := a.states.Get(ctx, d.ID)
	if err != nil {
		return Result{}, fmt.Errorf("resolving state for toggle: %w", err)
	}

	return a.command(ctx, d, device.ToggledState(current.State))
}

func (a *WiFiAdapter) command(ctx context.Context, d *device.Device, state string) (Result, error) {
	if !d.IsOutput() {
		return Result{}, fmt.Errorf("%w: command on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}

	breaker := a.breakerFor(d.Host)
	_, err := breaker.Execute(func() (any, error) {
		return nil, a.post(ctx, d.Host, state)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, fmt.Errorf("%w: host %s circuit open", ErrUnreachable, d.Host)
		}
		return Result{}, err
	}

	a.logger.Debug("wifi command delivered", "device_id", d.ID, "host", d.Host, "state", state)
	return Result{State: state}, nil
}

// post issues the control request. No retry: the caller gets a clear
// unreachable error within the timeout and decides what to do.
func (a *WiFiAdapter) post(ctx context.Context, host, state string) error {
	body, err := json.Marshal(map[string]string{"state": state})
	if err != nil {
		return fmt.Errorf("marshalling control payload: %w", err)
	}

	url := "http://" + host + wifiControlPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building control request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, host, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", ErrUnreachable, host, resp.StatusCode)
	}

	return nil
}

// Read is not supported over this transport; wifi devices in the fleet
// are outputs only.
func (a *WiFiAdapter) Read(_ context.Context, d *device.Device) (Reading, error) {
	return nil, fmt.Errorf("%w: read on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
}

// breakerFor returns the circuit breaker for a host, creating it on
// first use.
func (a *WiFiAdapter) breakerFor(host string) *gobreaker.CircuitBreaker {
	a.breakersMu.Lock()
	defer a.breakersMu.Unlock()

	if breaker, ok := a.breakers[host]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "wifi:" + host,
		Timeout: breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Warn("wifi breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	a.breakers[host] = breaker
	return breaker
}
