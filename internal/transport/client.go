// Package transport is the HTTP layer under the host action-API client:
// authentication, JSON and multipart request bodies, and response decoding.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http   *http.Client
	auth   Authenticator
	apiKey string
}

// New creates a new transport client with the specified authenticator and
// key. A nil httpClient uses a client with DefaultHTTPTimeout.
func New(auth Authenticator, apiKey string, httpClient *http.Client) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{http: httpClient, auth: auth, apiKey: apiKey}
}

// Do performs an HTTP request with authentication applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

// PostJSON posts body encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// File is a file part of a multipart request.
type File struct {
	Field    string
	Filename string
	Body     io.Reader
}

// PostMultipart posts fields and a file as multipart/form-data. The body is
// streamed, so large files are not buffered in memory.
func (c *Client) PostMultipart(ctx context.Context, url string, fields map[string]string, file File) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, file))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.Close()
		return nil, errors.WrapResource("create", "request", "POST "+url, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
	}
	return resp, err
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, file File) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if file.Body != nil {
		part, err := mw.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file.Body); err != nil {
			return err
		}
	}
	return mw.Close()
}
