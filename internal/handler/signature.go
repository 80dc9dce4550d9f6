package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VerifyFastSpringSignature checks the X-FS-Signature header: the base64
// encoded HMAC-SHA256 of the raw request body under the store secret.
func VerifyFastSpringSignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("no X-FS-Signature header was found")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("fastspring webhook signature verification failed")
	}
	return nil
}

// VerifyPaddleSignature checks the Paddle-Signature header
// ("ts=<unix>;h1=<hex>"): the hex HMAC-SHA256 of "<ts>:<body>" under the
// notification secret, with a freshness window against replays.
func VerifyPaddleSignature(secret string, body []byte, signature string, maxAge time.Duration) error {
	if signature == "" {
		return fmt.Errorf("no Paddle-Signature header was found")
	}

	var ts, h1 string
	for _, part := range strings.Split(signature, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "h1":
			h1 = value
		}
	}
	if ts == "" || h1 == "" {
		return fmt.Errorf("malformed Paddle-Signature header")
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed Paddle-Signature timestamp: %w", err)
	}
	if maxAge > 0 && time.Since(time.Unix(tsUnix, 0)) > maxAge {
		return fmt.Errorf("paddle webhook signature expired")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s", ts, body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(h1)) {
		return fmt.Errorf("paddle webhook signature verification failed")
	}
	return nil
}
