// Package paypal implements PayPal's client-credentials token exchange and remote
// webhook signature verification.
package paypal

import (
	"bytes"
	"encoding/json"
)

// Transmission headers PayPal attaches to every webhook delivery
const (
	HeaderTransmissionID   = "Paypal-Transmission-Id"
	HeaderTransmissionTime = "Paypal-Transmission-Time"
	HeaderCertURL          = "Paypal-Cert-Url"
	HeaderAuthAlgo         = "Paypal-Auth-Algo"
	HeaderTransmissionSig  = "Paypal-Transmission-Sig"
)

// TransmissionHeaders lists the headers that route a request to PayPal verification
var TransmissionHeaders = []string{
	HeaderTransmissionID,
	HeaderTransmissionTime,
	HeaderCertURL,
	HeaderAuthAlgo,
	HeaderTransmissionSig,
}

const (
	tokenPath  = "/v1/oauth2/token"
	verifyPath = "/v1/notifications/verify-webhook-signature"

	// VerificationSuccess is the only verification_status that accepts a webhook
	VerificationSuccess = "SUCCESS"
)

// verifyRequest is the verify-webhook-signature payload minus webhook_event,
// which is spliced in as the received bytes (see buildVerifyPayload).
type verifyRequest struct {
	AuthAlgo         string `json:"auth_algo"`
	CertURL          string `json:"cert_url"`
	TransmissionID   string `json:"transmission_id"`
	TransmissionSig  string `json:"transmission_sig"`
	TransmissionTime string `json:"transmission_time"`
	WebhookID        string `json:"webhook_id"`
}

// buildVerifyPayload appends the raw event body without re-encoding it.
// json.Marshal would compact a RawMessage, which changes the bytes PayPal signed.
func buildVerifyPayload(req verifyRequest, event []byte) ([]byte, error) {
	head, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(head) + len(event) + 20)
	buf.Write(head[:len(head)-1])
	buf.WriteString(`,"webhook_event":`)
	buf.Write(bytes.TrimSpace(event))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}
