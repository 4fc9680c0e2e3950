package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const leadsEndpoint = "/wp-json/rolling-riches/v1/leads"

type Client struct {
	siteURL    string
	authHeader string
	httpClient *http.Client
	maxTries   uint
}

func NewClient(siteURL, username, password string) *Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &Client{
		siteURL:    strings.TrimRight(siteURL, "/"),
		authHeader: "Basic " + credentials,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxTries:   3,
	}
}

// FetchLeads pulls one page of submissions created at or after `since`.
// Network errors and 5xx answers are retried with exponential backoff; 4xx
// answers are not.
func (c *Client) FetchLeads(ctx context.Context, since time.Time, limit, offset int) ([]RawLead, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if !since.IsZero() {
		params.Set("since", since.UTC().Format("2006-01-02 15:04:05"))
	}
	endpoint := c.siteURL + leadsEndpoint + "?" + params.Encode()

	operation := func() (*leadsResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("wordpress returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("wordpress returned %d: %s", resp.StatusCode, body))
		}

		var out leadsResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("invalid leads payload: %w", err))
		}
		return &out, nil
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch wordpress leads: %w", err)
	}
	return out.Leads, nil
}

// Healthcheck verifies the credentials against the standard WP REST API.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.siteURL+"/wp-json/wp/v2/users/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wordpress auth check returned %d", resp.StatusCode)
	}
	return nil
}
