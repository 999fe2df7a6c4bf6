package pickupmtaani

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentsFallsBackToMockData(t *testing.T) {
	client := NewClient("")

	agents, mock, err := client.Agents(context.Background())
	require.NoError(t, err)
	assert.True(t, mock)
	require.Len(t, agents, 5)
	assert.Equal(t, "agent_1", agents[0].AgentID)
	assert.Equal(t, "Westlands Agent", agents[0].Name)
	for _, a := range agents {
		assert.Equal(t, "Nairobi", a.Zone)
	}
}

func TestAgentsLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)
		assert.Equal(t, "Bearer pum_key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"agent_id":"agent_42","name":"Ngong Road Agent","location":"Prestige Plaza","area":"Ngong Road","zone":"Nairobi"}]`))
	}))
	defer srv.Close()

	client := NewClient("pum_key")
	client.baseURL = srv.URL

	agents, mock, err := client.Agents(context.Background())
	require.NoError(t, err)
	assert.False(t, mock)
	require.Len(t, agents, 1)
	assert.Equal(t, "agent_42", agents[0].AgentID)
}

func TestAgentChargeFallsBackToTariff(t *testing.T) {
	client := NewClient("")

	charge, err := client.AgentCharge(context.Background(), "agent_1")
	require.NoError(t, err)
	assert.Equal(t, 200.0, charge.DeliveryFee)
	assert.Equal(t, "KES", charge.Currency)
}

func TestAgentChargeSwallowsLookupFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("pum_key")
	client.baseURL = srv.URL

	charge, err := client.AgentCharge(context.Background(), "agent_1")
	require.NoError(t, err)
	assert.Equal(t, 200.0, charge.DeliveryFee)
}

func TestTrackNotConfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.Track(context.Background(), "PUM123456")
	assert.Error(t, err)
}

func TestTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/packages/agent-agent", r.URL.Path)
		assert.Equal(t, "PUM123456", r.URL.Query().Get("tracking_number"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tracking_number":"PUM123456","status":"in_transit"}`))
	}))
	defer srv.Close()

	client := NewClient("pum_key")
	client.baseURL = srv.URL

	info, err := client.Track(context.Background(), "PUM123456")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", info["status"])
}
