package mpesa

import "encoding/json"

// CallbackEnvelope is the Daraja STK result document. Deliveries have no
// guaranteed count or ordering; the handler must tolerate duplicates and
// always acknowledge.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

// Succeeded reports whether the push completed (ResultCode 0).
func (c StkCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// Receipt extracts MpesaReceiptNumber from the metadata, empty when absent
// (failures carry no metadata).
func (c StkCallback) Receipt() string {
	if c.CallbackMetadata == nil {
		return ""
	}
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// ParseCallback decodes the raw callback body.
func ParseCallback(raw []byte) (*StkCallback, error) {
	var envelope CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Body.StkCallback, nil
}

// Ack is the fixed acknowledgment body the provider expects from the
// callback endpoint, success or not.
func Ack() map[string]any {
	return map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"}
}
