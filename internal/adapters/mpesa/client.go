// Package mpesa is a client for the Safaricom Daraja API: OAuth token,
// STK push initiation and the asynchronous result callback.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	timestampLayout = "20060102150405"
)

var (
	// ErrNotConfigured is returned when consumer credentials are missing.
	ErrNotConfigured = errors.New("mpesa: consumer key/secret not configured")
	// ErrProviderUnavailable covers non-2xx token responses.
	ErrProviderUnavailable = errors.New("mpesa: provider unavailable")

	// Subscriber numbers are 2547XXXXXXXX / 2541XXXXXXXX: country code
	// prefix plus nine digits, twelve digits total.
	phonePattern = regexp.MustCompile(`^254\d{9}$`)
)

// RequestRejectedError is a provider-reported initiation rejection.
type RequestRejectedError struct {
	Code        string
	Description string
}

func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("mpesa: request rejected (%s): %s", e.Code, e.Description)
}

// Client talks to Daraja. Construct once, reuse across requests.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string

	now func() time.Time
}

func NewClient(environment, consumerKey, consumerSecret, shortcode, passkey string) *Client {
	baseURL := sandboxBaseURL
	if environment == "production" {
		baseURL = productionBaseURL
	}
	return &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		shortcode:      shortcode,
		passkey:        passkey,
		now:            time.Now,
	}
}

// ValidPhone reports whether the number matches the strict national format.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Password derives the STK password for a timestamp:
// base64(shortcode + passkey + timestamp).
func Password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

// AccessToken fetches a fresh short-lived OAuth token. Tokens are not
// cached: each initiation fetches its own.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.consumerKey == "" || c.consumerSecret == "" {
		return "", ErrNotConfigured
	}

	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("mpesa token decode: %w", err)
	}
	return body.AccessToken, nil
}

// PushRequest initiates one STK prompt on the payer's handset.
type PushRequest struct {
	Amount      int
	Phone       string
	CallbackURL string
	AccountRef  string
	Description string
}

// PushResponse is the synchronous acceptance of an STK push; the actual
// payment result arrives later on the callback URL.
type PushResponse struct {
	CheckoutRequestID string
	MerchantRequestID string
	CustomerMessage   string
}

// InitiatePush requests an STK prompt. A provider-side rejection surfaces
// as *RequestRejectedError and nothing should be persisted for it.
func (c *Client) InitiatePush(ctx context.Context, accessToken string, push PushRequest) (*PushResponse, error) {
	timestamp := c.now().Format(timestampLayout)

	payload := map[string]any{
		"BusinessShortCode": c.shortcode,
		"Password":          Password(c.shortcode, c.passkey, timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            push.Amount,
		"PartyA":            push.Phone,
		"PartyB":            c.shortcode,
		"PhoneNumber":       push.Phone,
		"CallBackURL":       push.CallbackURL,
		"AccountReference":  push.AccountRef,
		"TransactionDesc":   push.Description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mpesa stk push: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mpesa stk push read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stk push status %d: %s", ErrProviderUnavailable, resp.StatusCode, raw)
	}

	var result struct {
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		MerchantRequestID   string `json:"MerchantRequestID"`
		CustomerMessage     string `json:"CustomerMessage"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mpesa stk push decode: %w", err)
	}

	if result.ResponseCode != "0" {
		return nil, &RequestRejectedError{Code: result.ResponseCode, Description: result.ResponseDescription}
	}

	return &PushResponse{
		CheckoutRequestID: result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		CustomerMessage:   result.CustomerMessage,
	}, nil
}
