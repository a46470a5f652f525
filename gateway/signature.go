package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrSignature is returned whenever an inbound webhook fails verification.
// Handlers reject these at the boundary before touching the store.
var ErrSignature = errors.New("signature verification failed")

// VerifyStripeSignature checks a payment gateway webhook signature header of
// the form "t=<unix>,v1=<hex hmac>[,v1=...]" against the raw payload. The
// HMAC-SHA256 is computed over "<t>.<payload>" with the shared secret, and
// the timestamp must be within tolerance of now.
func VerifyStripeSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" || secret == "" {
		return ErrSignature
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrSignature
	}
	if tolerance > 0 {
		diff := now.Sub(time.Unix(unix, 0))
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrSignature)
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(want), []byte(sig)) {
			return nil
		}
	}
	return ErrSignature
}

// VerifySvixSignature checks an identity provider webhook delivered with
// svix-style headers. The signature is base64(HMAC-SHA256("<id>.<ts>.<payload>"))
// keyed by the "whsec_"-prefixed base64 secret; the signature header holds
// space-separated "v1,<sig>" entries, any of which may match.
func VerifySvixSignature(msgID, timestamp, sigHeader string, payload []byte, secret string) error {
	if msgID == "" || timestamp == "" || sigHeader == "" || secret == "" {
		return ErrSignature
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return ErrSignature
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, entry := range strings.Fields(sigHeader) {
		parts := strings.SplitN(entry, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		if hmac.Equal([]byte(want), []byte(parts[1])) {
			return nil
		}
	}
	return ErrSignature
}

// VerifySharedSecret compares a webhook's secret header against the
// configured value in constant time.
func VerifySharedSecret(got, want string) error {
	if got == "" || want == "" || !hmac.Equal([]byte(got), []byte(want)) {
		return ErrSignature
	}
	return nil
}
