package services

import (
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// ValidateSlackRequest はSlackからのリクエストの署名を検証する
// signingSecret が空の場合は検証しない（ローカル開発用）
func ValidateSlackRequest(header http.Header, body []byte, signingSecret string) error {
	if signingSecret == "" {
		return nil
	}

	verifier, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if _, err := verifier.Write(body); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err := verifier.Ensure(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
