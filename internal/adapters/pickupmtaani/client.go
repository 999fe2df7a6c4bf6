// Package pickupmtaani talks to the Pick Up Mtaani parcel network. When no
// API key is configured every lookup falls back to fixed mock values so the
// checkout flow keeps working in development.
package pickupmtaani

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.pickupmtaani.com/api/v1"

// Agent is a pickup point.
type Agent struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Area     string `json:"area"`
	Zone     string `json:"zone"`
}

// Charge is a delivery fee quote. Quotes are advisory: order totals use
// the fixed tariff locked in at creation time.
type Charge struct {
	DeliveryFee float64 `json:"delivery_fee"`
	Currency    string  `json:"currency"`
	Note        string  `json:"note,omitempty"`
}

// TrackingInfo is the network's view of a package.
type TrackingInfo map[string]any

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

// Configured reports whether live lookups are possible.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func mockAgents() []Agent {
	return []Agent{
		{AgentID: "agent_1", Name: "Westlands Agent", Location: "Westlands Mall", Area: "Westlands", Zone: "Nairobi"},
		{AgentID: "agent_2", Name: "CBD Agent", Location: "Kenyatta Avenue", Area: "CBD", Zone: "Nairobi"},
		{AgentID: "agent_3", Name: "Karen Agent", Location: "Karen Shopping Centre", Area: "Karen", Zone: "Nairobi"},
		{AgentID: "agent_4", Name: "Mombasa Road Agent", Location: "City Mall", Area: "Mombasa Road", Zone: "Nairobi"},
		{AgentID: "agent_5", Name: "Thika Road Agent", Location: "Garden City", Area: "Thika Road", Zone: "Nairobi"},
	}
}

// Agents lists pickup points, mock data when unconfigured.
func (c *Client) Agents(ctx context.Context) ([]Agent, bool, error) {
	if !c.Configured() {
		return mockAgents(), true, nil
	}

	var agents []Agent
	if err := c.getJSON(ctx, "/locations", nil, &agents); err != nil {
		return nil, false, err
	}
	return agents, false, nil
}

// AgentCharge quotes the agent-to-agent delivery fee. Lookup failures fall
// back to the fixed tariff rather than blocking checkout.
func (c *Client) AgentCharge(ctx context.Context, destinationAgentID string) (*Charge, error) {
	if !c.Configured() {
		return &Charge{DeliveryFee: 200, Currency: "KES", Note: "Mock data"}, nil
	}

	var charge Charge
	params := url.Values{"destination_agent_id": {destinationAgentID}}
	if err := c.getJSON(ctx, "/delivery-charge/agent-package", params, &charge); err != nil {
		return &Charge{DeliveryFee: 200, Currency: "KES"}, nil
	}
	return &charge, nil
}

// Track looks a tracking number up on the network.
func (c *Client) Track(ctx context.Context, trackingNumber string) (TrackingInfo, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("pickupmtaani: not configured")
	}

	var info TrackingInfo
	params := url.Values{"tracking_number": {trackingNumber}}
	if err := c.getJSON(ctx, "/packages/agent-agent", params, &info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pickupmtaani %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pickupmtaani %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
