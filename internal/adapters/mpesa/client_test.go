package mpesa

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPhone(t *testing.T) {
	valid := []string{"254712345678", "254101234567"}
	for _, phone := range valid {
		assert.True(t, ValidPhone(phone), phone)
	}

	invalid := []string{
		"0712345678",     // local format
		"25471234567",    // too short
		"2547123456789",  // too long
		"255712345678",   // wrong country code
		"+254712345678",  // plus prefix
		"25471234567a",   // non-digit
		"",
	}
	for _, phone := range invalid {
		assert.False(t, ValidPhone(phone), phone)
	}
}

func TestPassword(t *testing.T) {
	// base64("174379" + "passkey" + "20240131124500")
	got := Password("174379", "passkey", "20240131124500")
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey20240131124500"))
	assert.Equal(t, want, got)
}

func TestAccessTokenNotConfigured(t *testing.T) {
	client := NewClient("sandbox", "", "", "174379", "passkey")
	_, err := client.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/v1/generate", r.URL.Path)
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok_abc","expires_in":"3599"}`))
	}))
	defer srv.Close()

	client := NewClient("sandbox", "key", "secret", "174379", "passkey")
	client.baseURL = srv.URL

	token, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", token)
}

func TestInitiatePush(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mpesa/stkpush/v1/processrequest", r.URL.Path)
		assert.Equal(t, "Bearer tok_abc", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResponseCode": "0",
			"ResponseDescription": "Success. Request accepted for processing",
			"CustomerMessage": "Success. Request accepted for processing"
		}`))
	}))
	defer srv.Close()

	client := NewClient("sandbox", "key", "secret", "174379", "passkey")
	client.baseURL = srv.URL
	client.now = func() time.Time { return time.Date(2024, 1, 31, 12, 45, 0, 0, time.UTC) }

	resp, err := client.InitiatePush(context.Background(), "tok_abc", PushRequest{
		Amount:      1350,
		Phone:       "254712345678",
		CallbackURL: "https://shop.example/api/payments/mpesa/callback",
		AccountRef:  "ord_abc123",
		Description: "Payment for order ord_abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_191220191020363925", resp.CheckoutRequestID)
	assert.Equal(t, "29115-34620561-1", resp.MerchantRequestID)
}

func TestInitiatePushRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ResponseCode":"1","ResponseDescription":"Insufficient balance on the utility account"}`))
	}))
	defer srv.Close()

	client := NewClient("sandbox", "key", "secret", "174379", "passkey")
	client.baseURL = srv.URL

	_, err := client.InitiatePush(context.Background(), "tok_abc", PushRequest{Amount: 100, Phone: "254712345678"})
	var rejected *RequestRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "1", rejected.Code)
}

func TestParseCallbackSuccess(t *testing.T) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 1350.00},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)

	cb, err := ParseCallback(raw)
	require.NoError(t, err)
	assert.True(t, cb.Succeeded())
	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.Equal(t, "NLJ7RT61SV", cb.Receipt())
}

func TestParseCallbackFailure(t *testing.T) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user."
			}
		}
	}`)

	cb, err := ParseCallback(raw)
	require.NoError(t, err)
	assert.False(t, cb.Succeeded())
	assert.Empty(t, cb.Receipt())
}
