// Package saweria talks to the Saweria donation platform. Saweria has no
// public API: the creator id is scraped from the profile page's
// __NEXT_DATA__ blob, donations are posted to the backend the web client
// uses, and a QRIS donation counts as paid once its polled qr_string
// comes back empty.
package saweria

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"comicku.id/economy/internal/common"
)

// MinimumAmount is the smallest donation Saweria accepts, in IDR.
const MinimumAmount = 1000

// Browser UA: Saweria rejects requests without one.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15"

// Intent is a freshly created QRIS donation.
type Intent struct {
	Reference string // opaque id used for status polling
	QRString  string // QRIS payload the client renders as a QR code
}

// Client is a Saweria gateway client for one creator account.
type Client struct {
	username    string
	frontendURL string
	backendURL  string
	httpClient  *http.Client

	mu        sync.Mutex
	creatorID string // resolved lazily, cached for the process lifetime
}

// NewClient creates a Saweria client.
func NewClient(username, frontendURL, backendURL string, timeout time.Duration) *Client {
	return &Client{
		username:    username,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		backendURL:  strings.TrimRight(backendURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}

// resolveCreatorID scrapes the creator's internal id from the profile
// page. The id is stable, so one successful resolve serves the whole
// process.
func (c *Client) resolveCreatorID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creatorID != "" {
		return c.creatorID, nil
	}

	resp, err := c.get(ctx, c.frontendURL+"/"+c.username)
	if err != nil {
		return "", fmt.Errorf("%w: fetch profile: %v", common.ErrGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read profile: %v", common.ErrGateway, err)
	}

	blob, err := extractNextData(string(body))
	if err != nil {
		return "", err
	}

	var nextData struct {
		Props struct {
			PageProps struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(blob), &nextData); err != nil {
		return "", fmt.Errorf("%w: parse profile data: %v", common.ErrGateway, err)
	}
	if nextData.Props.PageProps.Data.ID == "" {
		return "", fmt.Errorf("%w: saweria account not found", common.ErrGateway)
	}

	c.creatorID = nextData.Props.PageProps.Data.ID
	return c.creatorID, nil
}

// extractNextData pulls the JSON body of the __NEXT_DATA__ script tag.
// Plain string search: the tag is machine-generated and always closed.
func extractNextData(html string) (string, error) {
	marker := `id="__NEXT_DATA__"`
	start := strings.Index(html, marker)
	if start < 0 {
		return "", fmt.Errorf("%w: saweria account not found", common.ErrGateway)
	}
	open := strings.Index(html[start:], ">")
	if open < 0 {
		return "", fmt.Errorf("%w: malformed profile page", common.ErrGateway)
	}
	rest := html[start+open+1:]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		return "", fmt.Errorf("%w: malformed profile page", common.ErrGateway)
	}
	return rest[:end], nil
}

// CreateDonation opens a QRIS donation and returns its reference and QR
// payload. sender and contact identify the donator to the provider;
// message is shown on the creator's feed.
func (c *Client) CreateDonation(ctx context.Context, amount int64, sender, contact, message string) (*Intent, error) {
	if amount < MinimumAmount {
		return nil, common.ErrAmountTooSmall
	}
	if message == "" {
		message = "Support Comicku"
	}

	creatorID, err := c.resolveCreatorID(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"agree":        true,
		"notUnderage":  true,
		"message":      message,
		"amount":       amount,
		"payment_type": "qris",
		"vote":         "",
		"currency":     "IDR",
		"customer_info": map[string]string{
			"first_name": sender,
			"email":      contact,
			"phone":      "",
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.backendURL+"/donations/"+creatorID, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: create donation: %v", common.ErrGateway, err)
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			ID       string `json:"id"`
			QRString string `json:"qr_string"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode donation response: %v", common.ErrGateway, err)
	}
	if resp.StatusCode != http.StatusOK || result.Data.ID == "" {
		msg := result.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("%w: %s", common.ErrGateway, msg)
	}

	return &Intent{Reference: result.Data.ID, QRString: result.Data.QRString}, nil
}

// CheckStatus reports whether a donation has been paid. Saweria clears
// the qr_string once the QRIS payment settles; an unknown reference
// reads as unpaid.
func (c *Client) CheckStatus(ctx context.Context, reference string) (bool, error) {
	resp, err := c.get(ctx, c.backendURL+"/donations/qris/"+reference)
	if err != nil {
		return false, fmt.Errorf("%w: check status: %v", common.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: %s", common.ErrGateway, resp.Status)
	}

	var result struct {
		Data struct {
			QRString *string `json:"qr_string"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("%w: decode status response: %v", common.ErrGateway, err)
	}
	return result.Data.QRString != nil && *result.Data.QRString == "", nil
}
