package agent

import (
	"bytes"
	"encoding/json"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// ListingDraft is the structured record the model produces for a listing
// post. Field names mirror the response schema exactly.
type ListingDraft struct {
	DealType       model.DealType               `json:"deal_type"`
	Slug           string                       `json:"slug"`
	Title          string                       `json:"title"`
	Subtitle       string                       `json:"subtitle"`
	Location       string                       `json:"location"`
	Body           string                       `json:"body"`
	Price          string                       `json:"price"`
	PriceOnRequest bool                         `json:"price_on_request"`
	Tags           []string                     `json:"tags"`
	KeyMetrics     []model.KeyMetric            `json:"key_metrics"`
	Translations   map[string]model.Translation `json:"translations"`
}

// Unwrap peels the transport envelopes off a raw model response and
// decodes the listing draft, if any.
//
// The payload may be nested inside "value" envelopes: one from the
// conversational transport's text wrapper and one from the nullable
// response schema. How many are actually present depends on the transport,
// so envelopes are peeled one at a time — an object whose only key is
// "value" is an envelope, anything else is payload. A null, absent, or
// non-object payload means "not a listing" (ok=false); a malformed
// response is treated the same way rather than surfacing an error, since
// one bad model reply must not abort a run.
func Unwrap(raw []byte) (ListingDraft, bool) {
	payload := peelEnvelopes(raw)

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) || payload[0] != '{' {
		return ListingDraft{}, false
	}

	var draft ListingDraft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return ListingDraft{}, false
	}
	return draft, true
}

// peelEnvelopes strips single-key "value" wrapper objects until the
// payload is an object with other keys, an array, a scalar, or null.
func peelEnvelopes(raw []byte) json.RawMessage {
	payload := json.RawMessage(bytes.TrimSpace(raw))
	for {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return payload
		}
		inner, isEnvelope := envelopeValue(obj)
		if !isEnvelope {
			return payload
		}
		payload = json.RawMessage(bytes.TrimSpace(inner))
	}
}

// envelopeValue reports whether obj is a wrapper whose payload of interest
// lives under "value". The transport's text wrapper carries an extra
// "annotations" key alongside it, so "value" plus annotations still counts
// as an envelope; any other extra key means obj is real payload.
func envelopeValue(obj map[string]json.RawMessage) (json.RawMessage, bool) {
	inner, ok := obj["value"]
	if !ok {
		return nil, false
	}
	for key := range obj {
		if key != "value" && key != "annotations" {
			return nil, false
		}
	}
	return inner, true
}
