package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/cashout/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

const (
	roleHolder   = "holder"
	roleReviewer = "reviewer"
)

// HMACStrategy implements auth token creation/verification using HMAC signatures.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy with provided secret and options.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken generates signed auth token for the principal.
func (s *HMACStrategy) IssueToken(principal model.Principal) (string, error) {
	role := roleHolder
	if principal.Reviewer {
		role = roleReviewer
	}
	account := principal.AccountID
	if account == "" {
		account = "-"
	}
	expires := s.now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%d:%s:%s:%d", principal.UserID, account, role, expires)
	sig := s.sign(payload)
	token := fmt.Sprintf("%s:%s", payload, sig)
	return base64.StdEncoding.EncodeToString([]byte(token)), nil
}

// ParseToken validates token and returns the encoded principal.
func (s *HMACStrategy) ParseToken(token string) (model.Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 5 {
		return model.Principal{}, ErrInvalidToken
	}

	payload := strings.Join(parts[:4], ":")
	expectedSig := s.sign(payload)
	if !hmac.Equal([]byte(expectedSig), []byte(parts[4])) {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	var accountID string
	if parts[1] != "-" {
		if _, err := uuid.Parse(parts[1]); err != nil {
			return model.Principal{}, ErrInvalidToken
		}
		accountID = parts[1]
	}

	var reviewer bool
	switch parts[2] {
	case roleHolder:
	case roleReviewer:
		reviewer = true
	default:
		return model.Principal{}, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	if time.Unix(expires, 0).Before(s.now()) {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{UserID: userID, AccountID: accountID, Reviewer: reviewer}, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac"
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
