package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erp/bridge/internal/domain/integration"
)

func TestWebhookVerifier_Verify(t *testing.T) {
	body := []byte(`{"id":42}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)
	valid := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	v := NewWebhookVerifier("s3cret")
	assert.True(t, v.Enabled())
	assert.Equal(t, valid, v.Sign(body))

	tests := []struct {
		name      string
		signature string
		body      []byte
		wantErr   bool
	}{
		{"valid signature", valid, body, false},
		{"wrong signature", "d3JvbmcK", body, true},
		{"empty signature", "", body, true},
		{"tampered body", valid, []byte(`{"id":43}`), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.signature, tt.body)
			if tt.wantErr {
				assert.ErrorIs(t, err, integration.ErrWebhookInvalidSignature)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWebhookVerifier_NoSecret(t *testing.T) {
	v := NewWebhookVerifier("")
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify("", []byte("anything")))
	assert.NoError(t, v.Verify("garbage", []byte("anything")))
}
