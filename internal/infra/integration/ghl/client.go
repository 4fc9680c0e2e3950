package ghl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://rest.gohighlevel.com/v1"
	defaultAPIVersion = "2021-07-28"
)

// Client talks to the Go High Level contacts API.
type Client struct {
	accessToken string
	locationID  string
	apiVersion  string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(accessToken, locationID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		accessToken: accessToken,
		locationID:  locationID,
		apiVersion:  defaultAPIVersion,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrUpdateContact pushes one contact. Transport and API failures are
// reported inside the ForwardResult, not as an error: the caller records
// the attempt either way. The returned error is reserved for requests that
// could not even be built.
func (c *Client) CreateOrUpdateContact(ctx context.Context, input ContactInput) (*ForwardResult, error) {
	payload := contactPayload{
		LocationID:  c.locationID,
		Email:       input.Email,
		Phone:       input.Phone,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Tags:        input.Tags,
		CustomField: input.CustomFields,
		Source:      input.Source,
	}
	if payload.Source == "" {
		payload.Source = "WordPress Lead Form"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal contact payload: %w", err)
	}

	result := &ForwardResult{
		RequestBody: body,
		RequestedAt: time.Now().UTC(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/contacts/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.RespondedAt = time.Now().UTC()
		result.ErrorMessage = err.Error()
		return result, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	result.RespondedAt = time.Now().UTC()
	result.ResponseStatus = resp.StatusCode
	result.ResponseBody = respBody

	var parsed contactResponse
	json.Unmarshal(respBody, &parsed)

	contactID := parsed.Contact.ID
	if contactID == "" {
		contactID = parsed.ID
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		result.Success = true
		result.ContactID = contactID

	case resp.StatusCode == http.StatusUnprocessableEntity:
		// GHL answers 422 for duplicates and usually includes the existing
		// contact id; that counts as success for an idempotent forwarder.
		if strings.Contains(strings.ToLower(string(respBody)), "duplicate") && contactID != "" {
			result.Success = true
			result.ContactID = contactID
			result.ErrorMessage = "duplicate contact"
		} else {
			result.ErrorMessage = "validation error or duplicate contact"
		}

	case resp.StatusCode == http.StatusUnauthorized:
		result.ErrorMessage = "authentication failed - check access token"

	case resp.StatusCode == http.StatusBadRequest:
		result.ErrorMessage = "bad request - check payload format"

	default:
		result.ErrorMessage = fmt.Sprintf("API error: %d", resp.StatusCode)
	}

	return result, nil
}

// TestConnection probes the contacts endpoint with the configured token.
func (c *Client) TestConnection(ctx context.Context) error {
	url := fmt.Sprintf("%s/contacts/?locationId=%s&limit=1", c.baseURL, c.locationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ghl connection check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
