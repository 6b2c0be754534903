package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/ecommerce"
	"github.com/erp/bridge/internal/interfaces/http/dto"
)

func signedRouter(verifier *ecommerce.WebhookVerifier, reached *bool) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(64))
	r.POST("/webhook/order", WebhookSignature(verifier), func(c *gin.Context) {
		*reached = true
		raw, ok := RawBody(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		again, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(raw)+"|"+string(again))
	})
	return r
}

func TestWebhookSignature(t *testing.T) {
	verifier := ecommerce.NewWebhookVerifier("s3cret")
	body := `{"id":1}`

	tests := []struct {
		name     string
		header   string
		value    string
		wantCode int
	}{
		{"documented header", SignatureHeader, verifier.Sign([]byte(body)), http.StatusOK},
		{"woocommerce header", WooSignatureHeader, verifier.Sign([]byte(body)), http.StatusOK},
		{"wrong signature", SignatureHeader, "bm9wZQ==", http.StatusUnauthorized},
		{"missing signature", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			req := httptest.NewRequest(http.MethodPost, "/webhook/order", strings.NewReader(body))
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			signedRouter(verifier, &reached).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.True(t, reached)
				assert.Equal(t, body+"|"+body, w.Body.String())
			} else {
				assert.False(t, reached)
				assert.Equal(t, dto.ErrCodeInvalidSignature, decodeError(t, w).Error.Code)
			}
		})
	}
}

func TestWebhookSignature_RecordsRejection(t *testing.T) {
	var recorded []*gin.Error
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		recorded = c.Errors
	})
	r.POST("/webhook/order", WebhookSignature(ecommerce.NewWebhookVerifier("s3cret")), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/order", strings.NewReader(`{"id":1}`))
	req.Header.Set(SignatureHeader, "bm9wZQ==")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	if assert.Len(t, recorded, 1) {
		assert.ErrorIs(t, recorded[0].Err, integration.ErrWebhookInvalidSignature)
	}
}

func TestWebhookSignature_NoSecretAcceptsAll(t *testing.T) {
	reached := false
	req := httptest.NewRequest(http.MethodPost, "/webhook/order", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	signedRouter(ecommerce.NewWebhookVerifier(""), &reached).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestWebhookSignature_OversizedChunkedBody(t *testing.T) {
	reached := false
	req := httptest.NewRequest(http.MethodPost, "/webhook/order", strings.NewReader(strings.Repeat("a", 200)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	signedRouter(ecommerce.NewWebhookVerifier(""), &reached).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, reached)
}
