// pkg/bunny/webhook.go
package bunny

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const SignatureHeader = "X-Bunny-Signature"

// WebhookPayload is the body the provider posts on encode status changes.
type WebhookPayload struct {
	VideoLibraryID int    `json:"VideoLibraryId"`
	VideoGUID      string `json:"VideoGuid"`
	Status         int    `json:"Status"`
}

// WebhookVerifier checks HMAC-SHA256 signatures over the raw request body.
// With an empty secret it is disabled and Verify accepts everything.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

func (v *WebhookVerifier) Enabled() bool {
	return len(v.secret) > 0
}

func (v *WebhookVerifier) Verify(body []byte, signature string) bool {
	if !v.Enabled() {
		return true
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	return hmac.Equal(got, sign(v.secret, body))
}

// Sign returns the hex signature the provider would send for body.
func Sign(secret string, body []byte) string {
	return hex.EncodeToString(sign([]byte(secret), body))
}

func sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
