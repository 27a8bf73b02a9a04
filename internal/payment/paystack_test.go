package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skitro/internal/domain"
	"skitro/internal/domain/models"
)

func TestInitializeTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SKT-20260301-ABC123", body["reference"])
		assert.EqualValues(t, 152050, body["amount"])
		w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout/abc","reference":"SKT-20260301-ABC123"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	u, err := c.InitializeTransaction(context.Background(), models.InitializeTransaction{
		Reference:   "SKT-20260301-ABC123",
		Email:       "rider@example.com",
		AmountMinor: 152050,
		Currency:    "NGN",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout/abc", u)
}

func TestInitializeTransaction_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk_test", time.Second).InitializeTransaction(context.Background(), models.InitializeTransaction{Reference: "x"})
	assert.True(t, domain.IsPaymentProviderUnavailable(err))
	assert.True(t, domain.IsRetryable(err))
}

func TestVerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/SKT-20260301-ABC123", r.URL.Path)
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"SKT-20260301-ABC123","amount":152050,"currency":"NGN","channel":"card"}}`))
	}))
	defer srv.Close()

	st, err := NewClient(srv.URL, "sk_test", time.Second).VerifyTransaction(context.Background(), "SKT-20260301-ABC123")
	require.NoError(t, err)
	assert.True(t, st.Successful())
	assert.EqualValues(t, 152050, st.Amount)
}

func TestVerifyTransaction_UnknownReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	st, err := NewClient(srv.URL, "sk_test", time.Second).VerifyTransaction(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, st.Successful())
}

func TestVerifyTransaction_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk_test", 20*time.Millisecond).VerifyTransaction(context.Background(), "slow")
	assert.True(t, domain.IsPaymentProviderUnavailable(err))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"SKT-1"}}`)
	mac := hmac.New(sha512.New, []byte("sk_test"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	c := NewClient("", "sk_test", 0)
	assert.True(t, c.VerifySignature(body, sig))
	assert.False(t, c.VerifySignature(body, "deadbeef"))
	assert.False(t, c.VerifySignature(append(body, ' '), sig))

	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "charge.success", ev.Event)
	assert.Equal(t, "SKT-1", ev.Data.Reference)
}
