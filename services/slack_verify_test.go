package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signedHeader(secret, body string, ts time.Time) http.Header {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)

	header := http.Header{}
	header.Set("X-Slack-Request-Timestamp", timestamp)
	header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return header
}

func TestValidateSlackRequest(t *testing.T) {
	body := "command=%2Fpr-active&channel_id=C1"
	secret := "signing-secret"

	tests := []struct {
		name    string
		header  http.Header
		secret  string
		wantErr bool
	}{
		{"正しい署名", signedHeader(secret, body, time.Now()), secret, false},
		{"別のシークレット", signedHeader("other", body, time.Now()), secret, true},
		{"古いタイムスタンプ", signedHeader(secret, body, time.Now().Add(-10*time.Minute)), secret, true},
		{"ヘッダーなし", http.Header{}, secret, true},
		{"シークレット未設定なら検証しない", http.Header{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlackRequest(tt.header, []byte(body), tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSignature)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
