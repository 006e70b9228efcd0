// Package ckan implements the host interfaces over a CKAN action API
// (/api/3/action/<name>).
package ckan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/searchterms/internal/transport"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/logging"
)

// DefaultIndexAction is the action submitted for indexing the artifact.
const DefaultIndexAction = "xloader_submit"

// Client talks to a CKAN instance.
type Client struct {
	base        string
	http        *transport.Client
	indexAction string
}

// Option configures a Client.
type Option func(*options) error

type options struct {
	httpClient  *http.Client
	authScheme  string
	indexAction string
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		o.httpClient = c
		return nil
	}
}

// WithAuthScheme selects how the API key is sent ("bearer", "none", or the
// default raw Authorization header).
func WithAuthScheme(scheme string) Option {
	return func(o *options) error {
		o.authScheme = scheme
		return nil
	}
}

// WithIndexAction sets the action called by SubmitForIndexing. An empty
// name disables indexing submissions.
func WithIndexAction(action string) Option {
	return func(o *options) error {
		o.indexAction = action
		return nil
	}
}

// New creates a client for the CKAN site at baseURL.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewConfigError("ckan", fmt.Sprintf("invalid site url %q", baseURL), err)
	}
	o := &options{indexAction: DefaultIndexAction}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Client{
		base:        strings.TrimRight(baseURL, "/") + "/api/3/action/",
		http:        transport.New(transport.ForScheme(o.authScheme), apiKey, o.httpClient),
		indexAction: o.indexAction,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *actionError    `json:"error"`
}

type actionError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// call posts payload to the action and decodes its result into out.
func (c *Client) call(ctx context.Context, action string, payload, out any) error {
	resp, err := c.http.PostJSON(ctx, c.base+action, payload)
	if err != nil {
		return errors.WrapAPI(action, 0, err)
	}
	return c.decode(ctx, action, resp, out)
}

func (c *Client) decode(ctx context.Context, action string, resp *http.Response, out any) error {
	body, err := transport.ReadBody(resp)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return errors.NewAPIError(action, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return errors.WrapParse("json", action, err)
	}
	if !env.Success || resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if env.Error != nil {
			msg = env.Error.Message
			if msg == "" {
				msg = env.Error.Type
			}
		}
		status := resp.StatusCode
		if env.Error != nil && env.Error.Type == "Not Found Error" {
			status = http.StatusNotFound
		}
		logging.FromContext(ctx).Debug().Str("action", action).Int("status", status).Str("error", msg).Msg("CKAN action failed")
		return errors.NewAPIError(action, status, msg)
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return errors.WrapParse("json", action, err)
	}
	return nil
}
