package transport

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/errors"
)

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name   string
		auth   Authenticator
		header string
		want   string
	}{
		{"none", &NoAuth{}, "Authorization", ""},
		{"bearer", &BearerAuth{}, "Authorization", "Bearer key"},
		{"raw header", &HeaderAuth{}, "Authorization", "key"},
		{"custom header", &HeaderAuth{Header: "X-CKAN-API-Key"}, "X-CKAN-API-Key", "key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header)}
			tt.auth.Apply(req, "key")
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
		})
	}
}

func TestForScheme(t *testing.T) {
	assert.IsType(t, &BearerAuth{}, ForScheme("bearer"))
	assert.IsType(t, &NoAuth{}, ForScheme("none"))
	assert.IsType(t, &HeaderAuth{}, ForScheme(""))
}

func TestPostJSONAppliesAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"id":"abc"}`, string(body))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(&HeaderAuth{}, "secret", nil)
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"id": "abc"})
	require.NoError(t, err)

	var out struct{ OK bool }
	require.NoError(t, DecodeResponse(resp, "test", &out))
	assert.True(t, out.OK)
}

func TestPostMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		mr := multipart.NewReader(r.Body, params["boundary"])
		got := map[string]string{}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(part)
			key := part.FormName()
			if part.FileName() != "" {
				key += ":" + part.FileName()
			}
			got[key] = string(data)
		}
		assert.Equal(t, map[string]string{
			"name":             "Search Terms",
			"upload:terms.tsv": "a\tb\n",
		}, got)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(nil, "", nil)
	resp, err := c.PostMultipart(context.Background(), srv.URL,
		map[string]string{"name": "Search Terms"},
		File{Field: "upload", Filename: "terms.tsv", Body: strings.NewReader("a\tb\n")})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, DecodeResponse(resp, "upload", &out))
}

func TestDecodeResponseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(nil, "", nil)
	resp, err := c.PostJSON(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	err = DecodeResponse(resp, "package_show", &struct{}{})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "package_show", apiErr.Action)
	assert.True(t, errors.IsNotFound(err))
}
