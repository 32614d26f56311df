//go:build !integration

package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
)

const testBotToken = "123456:test-bot-token"

func signInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	q := url.Values{}
	for k, v := range fields {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func freshFields() map[string]string {
	return map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":99281932,"first_name":"Maria","last_name":"K","username":"maria_k","photo_url":"https://t.me/i/userpic/320/maria.jpg"}`,
	}
}

func TestTelegramVerifier_Resolve(t *testing.T) {
	ctx := context.Background()
	v := NewTelegramVerifier(testBotToken, 24*time.Hour)

	t.Run("accepts correctly signed initData and extracts the user", func(t *testing.T) {
		user, err := v.Resolve(ctx, signInitData(t, testBotToken, freshFields()))
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if user.ID != "99281932" || user.TelegramID != 99281932 {
			t.Errorf("expected stable id from telegram id, got %+v", user)
		}
		if user.FirstName != "Maria" || user.Username != "maria_k" {
			t.Errorf("expected profile fields extracted, got %+v", user)
		}
	})

	t.Run("rejects initData signed with another bot token", func(t *testing.T) {
		_, err := v.Resolve(ctx, signInitData(t, "999:other-token", freshFields()))
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got: %v", err)
		}
	})

	t.Run("rejects tampered fields", func(t *testing.T) {
		data := signInitData(t, testBotToken, freshFields())
		tampered := strings.Replace(data, "Maria", "Mallory", 1)
		if _, err := v.Resolve(ctx, tampered); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got: %v", err)
		}
	})

	t.Run("rejects stale auth_date", func(t *testing.T) {
		fields := freshFields()
		fields["auth_date"] = fmt.Sprintf("%d", time.Now().Add(-48*time.Hour).Unix())
		if _, err := v.Resolve(ctx, signInitData(t, testBotToken, fields)); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got: %v", err)
		}
	})

	t.Run("rejects missing hash", func(t *testing.T) {
		if _, err := v.Resolve(ctx, "user=%7B%22id%22%3A1%7D"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got: %v", err)
		}
	})
}
