package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/avdnv/exchange-miniapp/internal/api/problem"
	"github.com/avdnv/exchange-miniapp/internal/models"
	"go.uber.org/zap"
)

const initDataScheme = "tma"

var (
	errMissingHash = errors.New("init data has no hash")
	errBadHash     = errors.New("init data hash mismatch")
)

// UserUpserter persists the authenticated Telegram user on each request.
type UserUpserter interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

// ValidateInitData checks the Web App init data signature against the bot token.
// The secret key is HMAC-SHA256 of the token keyed by the literal "WebAppData",
// and the hash covers the remaining parameters sorted by key and joined with
// newlines as "key=value" pairs.
func ValidateInitData(initData, botToken string) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("parse init data: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, errMissingHash
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(hash)) {
		return nil, errBadHash
	}
	return values, nil
}

// ParseInitDataUser extracts the user object from validated init data.
func ParseInitDataUser(values url.Values) (*models.User, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, errors.New("init data has no user")
	}

	var payload struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode init data user: %w", err)
	}
	if payload.ID == 0 {
		return nil, errors.New("init data user has no id")
	}

	return &models.User{
		TelegramID: payload.ID,
		Username:   payload.Username,
		FirstName:  payload.FirstName,
	}, nil
}

// TelegramAuth authenticates Mini App requests carrying "Authorization: tma <initData>".
// The user is upserted and placed into the request context.
func TelegramAuth(botToken string, users UserUpserter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initData, ok := initDataFromHeader(r.Header.Get("Authorization"))
			if !ok {
				writeAuthProblem(w, r, "missing Telegram init data")
				return
			}

			values, err := ValidateInitData(initData, botToken)
			if err != nil {
				zap.L().Warn("init data rejected",
					zap.Error(err),
					zap.String("trace_id", TraceIDFromContext(r.Context())),
				)
				writeAuthProblem(w, r, "invalid Telegram init data")
				return
			}

			user, err := ParseInitDataUser(values)
			if err != nil {
				writeAuthProblem(w, r, "invalid Telegram init data")
				return
			}

			if err := users.UpsertUser(r.Context(), user); err != nil {
				zap.L().Error("upsert user failed",
					zap.Error(err),
					zap.Int64("telegram_id", user.TelegramID),
				)
				problem.Write(
					w,
					r,
					http.StatusInternalServerError,
					problem.Type("internal-server-error"),
					http.StatusText(http.StatusInternalServerError),
					"unexpected server error",
				)
				return
			}

			ctx := context.WithValue(r.Context(), telegramUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func initDataFromHeader(header string) (string, bool) {
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, initDataScheme) || rest == "" {
		return "", false
	}
	return rest, true
}

func writeAuthProblem(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(
		w,
		r,
		http.StatusUnauthorized,
		problem.Type("unauthorized"),
		http.StatusText(http.StatusUnauthorized),
		detail,
	)
}
