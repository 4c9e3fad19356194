// Package sources defines the uniform adapter contract every catalog platform
// implements, plus the HTTP plumbing the JSON adapters share.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/tidwall/gjson"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 16 << 20

// Adapter fetches one platform's catalog and normalizes it. Implementations
// set ItemDescriptor.Platform themselves and do not touch shared state.
type Adapter interface {
	Platform() core.Platform
	Fetch(ctx context.Context) ([]core.ItemDescriptor, error)
}

// GetBody performs a single GET against url and returns the body of a 200
// response. Every failure is reported as a *core.FetchError for platform.
func GetBody(ctx context.Context, client *http.Client, platform core.Platform, url, userAgent string) ([]byte, error) {
	if client == nil {
		return nil, core.NewFetchError(platform, fmt.Errorf("http client is required"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.NewFetchError(platform, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, core.NewFetchError(platform, fmt.Errorf("request catalog: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, core.NewFetchError(platform, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, core.NewFetchError(platform, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// RecordID returns v as an item id. Only JSON strings and numbers qualify;
// objects, arrays, booleans and blanks are rejected.
func RecordID(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String, gjson.Number:
		id := strings.TrimSpace(v.String())
		return id, id != ""
	default:
		return "", false
	}
}
