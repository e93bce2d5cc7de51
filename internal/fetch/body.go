package fetch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxErrorBody bounds how much of an error response is kept for messages
const maxErrorBody = 4096

type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (b *gzipBody) Close() error {
	b.Reader.Close()
	return b.raw.Close()
}

// OpenBody returns the response body, decoding gzip content encoding.
// Closing the returned reader closes the response body.
func OpenBody(resp *http.Response) (io.ReadCloser, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to open gzip body: %w", err)
	}
	return &gzipBody{Reader: zr, raw: resp.Body}, nil
}

// CheckStatus turns a non-2xx response into an error and closes its body
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	var text string
	if body, err := OpenBody(resp); err == nil {
		data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		text = strings.TrimSpace(string(data))
	}
	return fmt.Errorf("HTTP error! status: %d - %s", resp.StatusCode, text)
}

// DecodeJSON checks the status and decodes the body into v
func DecodeJSON(resp *http.Response, v any) error {
	if err := CheckStatus(resp); err != nil {
		return err
	}
	body, err := OpenBody(resp)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
