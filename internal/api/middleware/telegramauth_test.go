package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "1234567890:TEST-TOKEN-abcdefghijklmnop"

// signInitData computes the Web App signature the way Telegram does, so the
// validator is checked against an independently built payload.
func signInitData(t *testing.T, params map[string]string, botToken string) string {
	t.Helper()

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	hash := hex.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func testInitData(t *testing.T) string {
	return signInitData(t, map[string]string{
		"user":      `{"id":555000111,"first_name":"Ivan","username":"ivanp"}`,
		"auth_date": "1724900000",
		"query_id":  "AAF8vZMfAAAAAHy9kx_x",
	}, testBotToken)
}

func TestValidateInitData(t *testing.T) {
	values, err := ValidateInitData(testInitData(t), testBotToken)
	require.NoError(t, err)
	assert.Equal(t, "1724900000", values.Get("auth_date"))
}

func TestValidateInitDataRejectsTampering(t *testing.T) {
	initData := testInitData(t)

	tampered := strings.Replace(initData, "555000111", "555000999", 1)
	_, err := ValidateInitData(tampered, testBotToken)
	assert.Error(t, err)

	_, err = ValidateInitData(initData, "other-token")
	assert.Error(t, err)

	_, err = ValidateInitData("user=%7B%7D&auth_date=1", testBotToken)
	assert.Error(t, err, "missing hash must be rejected")
}

func TestParseInitDataUser(t *testing.T) {
	values, err := ValidateInitData(testInitData(t), testBotToken)
	require.NoError(t, err)

	user, err := ParseInitDataUser(values)
	require.NoError(t, err)
	assert.Equal(t, int64(555000111), user.TelegramID)
	assert.Equal(t, "ivanp", user.Username)
	assert.Equal(t, "Ivan", user.FirstName)
}

func TestParseInitDataUserMissing(t *testing.T) {
	_, err := ParseInitDataUser(url.Values{})
	assert.Error(t, err)

	_, err = ParseInitDataUser(url.Values{"user": []string{"{not json"}})
	assert.Error(t, err)

	_, err = ParseInitDataUser(url.Values{"user": []string{"{}"}})
	assert.Error(t, err)
}

type stubUpserter struct {
	upserted []models.User
	err      error
}

func (s *stubUpserter) UpsertUser(ctx context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, *user)
	return nil
}

func TestTelegramAuthMiddleware(t *testing.T) {
	upserter := &stubUpserter{}
	var gotUser *models.User
	handler := TelegramAuth(testBotToken, upserter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = TelegramUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "tma "+testInitData(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, int64(555000111), gotUser.TelegramID)
	require.Len(t, upserter.upserted, 1)
	assert.Equal(t, "ivanp", upserter.upserted[0].Username)
}

func TestTelegramAuthMiddlewareRejects(t *testing.T) {
	handler := TelegramAuth(testBotToken, &stubUpserter{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Bearer sometoken"},
		{"empty payload", "tma "},
		{"bad signature", "tma user=%7B%22id%22%3A1%7D&hash=deadbeef"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}
