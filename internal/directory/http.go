package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/glucosense/glucosense-go/internal/errors"
)

// ErrUserNotFound is returned when the directory has no profile for a user id.
var ErrUserNotFound = errors.WithCategory(errors.New("user not found"), errors.CategoryNotFound)

const defaultLookupTimeout = 3 * time.Second

// HTTPDirectory fetches profiles from the account backend's internal API
// (GET {baseURL}/internal/users/{id}).
type HTTPDirectory struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

// NewHTTPDirectory creates a directory client with a bounded request timeout.
// A zero timeout falls back to 3 seconds.
func NewHTTPDirectory(baseURL, apiToken string, timeout time.Duration) *HTTPDirectory {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &HTTPDirectory{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// Lookup implements UserDirectory.
func (d *HTTPDirectory) Lookup(ctx context.Context, userID string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/internal/users/%s", d.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	if d.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query user directory: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("directory returned status %d: %s", resp.StatusCode, string(body))
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile for user %s: %w", userID, err)
	}
	if profile.ID == "" {
		profile.ID = userID
	}
	return &profile, nil
}
