package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
)

var _ adapter.IdentityProvider = (*TelegramVerifier)(nil)

// TelegramVerifier authenticates Telegram WebApp initData: the query string
// the mini-app receives from the Telegram client, signed with
// HMAC-SHA256(secret = HMAC-SHA256("WebAppData", botToken)).
type TelegramVerifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

func NewTelegramVerifier(botToken string, maxAge time.Duration) *TelegramVerifier {
	return &TelegramVerifier{botToken: botToken, maxAge: maxAge, now: time.Now}
}

type webAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// Resolve validates the initData signature and freshness, then extracts the
// embedded user.
func (v *TelegramVerifier) Resolve(ctx context.Context, credential string) (*model.User, error) {
	values, err := url.ParseQuery(credential)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, domain.ErrUnauthorized
	}
	values.Del("hash")

	// data-check-string: sorted key=value lines joined with '\n'.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(v.botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, domain.ErrUnauthorized
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil || v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
			return nil, domain.ErrUnauthorized
		}
	}

	var u webAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := model.NewUser(u.ID, u.FirstName, u.LastName, u.Username, u.PhotoURL)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}
