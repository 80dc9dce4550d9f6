package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastspringSign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func paddleSign(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%s", ts, body)
	return fmt.Sprintf("ts=%d;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyFastSpringSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)

	require.NoError(t, VerifyFastSpringSignature("secret", body, fastspringSign("secret", body)))

	assert.Error(t, VerifyFastSpringSignature("secret", body, ""))
	assert.Error(t, VerifyFastSpringSignature("secret", body, fastspringSign("other", body)))
	assert.Error(t, VerifyFastSpringSignature("secret", []byte(`tampered`), fastspringSign("secret", body)))
}

func TestVerifyPaddleSignature(t *testing.T) {
	body := []byte(`{"event_id":"evt_1"}`)
	now := time.Now().Unix()

	require.NoError(t, VerifyPaddleSignature("secret", body, paddleSign("secret", now, body), 5*time.Second))

	assert.Error(t, VerifyPaddleSignature("secret", body, "", 5*time.Second))
	assert.Error(t, VerifyPaddleSignature("secret", body, "h1=deadbeef", 5*time.Second))
	assert.Error(t, VerifyPaddleSignature("secret", body, paddleSign("other", now, body), 5*time.Second))

	stale := now - 60
	assert.Error(t, VerifyPaddleSignature("secret", body, paddleSign("secret", stale, body), 5*time.Second),
		"deliveries outside the freshness window are replays")
}
