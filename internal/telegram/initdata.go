// Package telegram verifies Telegram Mini App init data. The init data
// is a query string signed by the bot token; see the Web Apps docs for
// the data-check-string construction.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMissingHash  = errors.New("telegram: init data has no hash")
	ErrBadSignature = errors.New("telegram: init data signature mismatch")
	ErrNoUser       = errors.New("telegram: init data has no user")
)

// User is the subset of the Telegram user payload the backend cares
// about.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// TelegramID returns the numeric user id rendered as a string, the form
// used as the player key everywhere else.
func (u User) TelegramID() string { return strconv.FormatInt(u.ID, 10) }

// DisplayName picks the friendliest available name.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Player " + u.TelegramID()
}

// VerifyInitData checks the init data signature against the bot token
// and returns the embedded user. The comparison is constant time.
func VerifyInitData(initData, botToken string) (*User, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}

	pairs := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		pairs = append(pairs, k+"="+values.Get(k))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrBadSignature
	}

	rawUser := values.Get("user")
	if rawUser == "" {
		return nil, ErrNoUser
	}
	var u User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, ErrNoUser
	}
	return &u, nil
}
