package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/logging"
)

// ReadBody reads and closes a response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}
	return body, nil
}

// DecodeResponse decodes a JSON response into the target structure. Non-200
// responses become an APIError for the named action.
func DecodeResponse(resp *http.Response, action string, target any) error {
	body, err := ReadBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return errors.NewAPIError(action, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
