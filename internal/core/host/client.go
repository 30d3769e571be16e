package host

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hostpatch/hostpatch/internal/core/mediaguard"
	"github.com/hostpatch/hostpatch/internal/core/registry"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultWaitBudget bounds how long a single WaitFor registration keeps
	// polling. The registry contract allows "never calls back".
	DefaultWaitBudget = 30 * time.Second
)

type Opts struct {
	Addr         string
	Token        string
	Timeout      time.Duration
	PollInterval time.Duration
	WaitBudget   time.Duration
}

// Client talks to the mod host's control API. It implements the component
// registry (by polling), the refresher, the feature-flag store and the
// media-device surface.
type Client struct {
	l            *slog.Logger
	rc           *resty.Client
	pollInterval time.Duration
	waitBudget   time.Duration
}

var _ registry.Registry = &Client{}
var _ mediaguard.MediaDevices = &Client{}

func NewClient(opts *Opts) (*Client, error) {
	addr, err := NormalizeAddr(opts.Addr)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	waitBudget := opts.WaitBudget
	if waitBudget <= 0 {
		waitBudget = DefaultWaitBudget
	}

	rc := resty.New()
	rc.SetRetryCount(0)
	rc.SetTimeout(timeout)
	rc.SetBaseURL(addr)
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	return &Client{
		l:            slog.With(slog.String("component", "host-client")),
		rc:           rc,
		pollInterval: pollInterval,
		waitBudget:   waitBudget,
	}, nil
}

func (c *Client) log() *slog.Logger {
	if c.l != nil {
		return c.l
	}
	return slog.With(slog.String("component", "host-client"))
}

// WaitFor polls the host's lookup endpoint until a match appears or the wait
// budget runs out. fn is called at most once.
func (c *Client) WaitFor(q registry.Query, fn func(registry.Component)) {
	go func() {
		deadline := time.Now().Add(c.waitBudget)
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			if comp, ok := c.lookup(q); ok {
				fn(comp)
				return
			}
			if time.Now().After(deadline) {
				c.log().Debug("lookup budget exhausted",
					slog.String("query", q.String()),
				)
				return
			}
			<-ticker.C
		}
	}()
}

func (c *Client) lookup(q registry.Query) (registry.Component, bool) {
	var comp registry.Component
	resp, err := c.rc.R().
		SetQueryParam("kind", q.Kind.String()).
		SetQueryParam("term", q.Term).
		SetResult(&comp).
		Get("/components/lookup")
	if err != nil {
		c.log().Debug("lookup failed", slog.String("query", q.String()), slog.Any("err", err))
		return registry.Component{}, false
	}
	if resp.StatusCode() == http.StatusNotFound {
		return registry.Component{}, false
	}
	if resp.IsError() {
		c.log().Debug("lookup request error",
			slog.String("query", q.String()),
			slog.Int("status", resp.StatusCode()),
		)
		return registry.Component{}, false
	}
	return comp, true
}

// ForceRefresh dispatches a synthetic resize event to the host document.
func (c *Client) ForceRefresh(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Post("/ui/events/resize")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ForceRefresh() request error: %d", resp.StatusCode())
	}
	return nil
}

// InitPlugins asks the host to (re)initialize its plugin set. Callers are
// expected to debounce: the host treats rapid successive inits as distinct.
func (c *Client) InitPlugins(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Post("/plugins/init")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("InitPlugins() request error: %d", resp.StatusCode())
	}
	return nil
}

// feature flags

type flagValue struct {
	Value bool `json:"value"`
}

func (c *Client) SetFlag(ctx context.Context, name string, value bool) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(&flagValue{Value: value}).
		Put("/settings/flags/" + name)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("SetFlag(%s) request error: %d", name, resp.StatusCode())
	}
	return nil
}

func (c *Client) Flag(ctx context.Context, name string) (bool, error) {
	var v flagValue
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&v).
		Get("/settings/flags/" + name)
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, fmt.Errorf("Flag(%s) request error: %d", name, resp.StatusCode())
	}
	return v.Value, nil
}

// media devices

type sinkRequest struct {
	DeviceID string `json:"device_id"`
}

func (c *Client) SetSink(ctx context.Context, deviceID string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(&sinkRequest{DeviceID: deviceID}).
		Post("/media/sink")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("SetSink() request error: %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) GetDisplayMedia(ctx context.Context, constraints mediaguard.Constraints) (mediaguard.Stream, error) {
	return c.mediaRequest(ctx, "/media/display-capture", constraints)
}

func (c *Client) GetUserMedia(ctx context.Context, constraints mediaguard.Constraints) (mediaguard.Stream, error) {
	return c.mediaRequest(ctx, "/media/user-media", constraints)
}

func (c *Client) mediaRequest(ctx context.Context, path string, constraints mediaguard.Constraints) (mediaguard.Stream, error) {
	var stream mediaguard.Stream
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(&constraints).
		SetResult(&stream).
		Post(path)
	if err != nil {
		return mediaguard.Stream{}, err
	}
	if resp.IsError() {
		return mediaguard.Stream{}, fmt.Errorf("media request error: %s: %d", path, resp.StatusCode())
	}
	return stream, nil
}
