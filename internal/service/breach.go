package service

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dtroode/authgate-server/internal/crypto"
)

// BreachChecker reports whether a password appears in a known breach
// corpus.
type BreachChecker interface {
	IsBreached(ctx context.Context, password string) (bool, error)
}

// HIBPClient queries the Have-I-Been-Pwned range API using SHA-1
// k-anonymity: only the first five hex digits of the digest leave the
// process.
type HIBPClient struct {
	baseURL string
	client  *http.Client
}

// NewHIBPClient creates a breach checker against the public range API.
func NewHIBPClient() *HIBPClient {
	return &HIBPClient{
		baseURL: "https://api.pwnedpasswords.com/range",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// IsBreached looks the password's SHA-1 suffix up in the range bucket for
// its five-digit prefix.
func (c *HIBPClient) IsBreached(ctx context.Context, password string) (bool, error) {
	digest := strings.ToUpper(hex.EncodeToString(crypto.SHA1([]byte(password))))
	prefix, suffix := digest[:5], digest[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+prefix, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build breach lookup request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query breach corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("breach corpus returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if hashSuffix, _, found := strings.Cut(line, ":"); found && hashSuffix == suffix {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read breach corpus response: %w", err)
	}
	return false, nil
}
