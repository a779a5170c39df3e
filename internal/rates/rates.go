// Package rates computes the buy/sell rates shown to users: a raw rate from
// the configured source with the operator markup applied, cached briefly in
// redis so the public rate endpoint stays cheap.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const cacheKey = "rates:current"

// Source supplies raw buy/sell rates before markup.
type Source interface {
	RawRates(ctx context.Context) (buy, sell decimal.Decimal, err error)
}

// StaticSource returns fixed rates. Used as the fallback when no external
// rate provider is configured.
type StaticSource struct {
	Buy  decimal.Decimal
	Sell decimal.Decimal
}

// DefaultSource mirrors the fallback rates the original settings sheet
// shipped with.
func DefaultSource() StaticSource {
	return StaticSource{
		Buy:  decimal.NewFromFloat(97.50),
		Sell: decimal.NewFromFloat(96.80),
	}
}

func (s StaticSource) RawRates(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return s.Buy, s.Sell, nil
}

// SettingsStore persists the markup configuration.
type SettingsStore interface {
	GetRateSettings(ctx context.Context) (*models.RateSettings, error)
	SaveRateSettings(ctx context.Context, rs *models.RateSettings) error
}

// Rates is the public view of the current exchange rates.
type Rates struct {
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}

// RateSettingsView is the admin view: markups plus the raw and final rates
// they produce.
type RateSettingsView struct {
	BuyMarkupPercent  decimal.Decimal `json:"buy_markup_percent"`
	SellMarkupPercent decimal.Decimal `json:"sell_markup_percent"`
	RawBuyRate        decimal.Decimal `json:"raw_buy_rate"`
	RawSellRate       decimal.Decimal `json:"raw_sell_rate"`
	FinalBuyRate      decimal.Decimal `json:"final_buy_rate"`
	FinalSellRate     decimal.Decimal `json:"final_sell_rate"`
	UpdatedBy         string          `json:"updated_by"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type Service struct {
	source   Source
	settings SettingsStore
	cache    redis.Cmdable
	cacheTTL time.Duration
}

// NewService builds the rate service. cache may be nil; caching is then
// disabled.
func NewService(source Source, settings SettingsStore, cache redis.Cmdable, cacheTTL time.Duration) *Service {
	if source == nil {
		source = DefaultSource()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{source: source, settings: settings, cache: cache, cacheTTL: cacheTTL}
}

// CurrentRates returns the marked-up buy/sell pair, serving from cache when
// fresh. Cache failures are logged and bypassed.
func (s *Service) CurrentRates(ctx context.Context) (Rates, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached Rates
			if json.Unmarshal([]byte(val), &cached) == nil {
				return cached, nil
			}
		}
	}

	view, err := s.Settings(ctx)
	if err != nil {
		return Rates{}, err
	}
	rates := Rates{Buy: view.FinalBuyRate, Sell: view.FinalSellRate}

	if s.cache != nil {
		if payload, err := json.Marshal(rates); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				zap.L().Warn("failed to cache rates", zap.Error(err))
			}
		}
	}
	return rates, nil
}

// Settings returns the markup settings together with the raw and final rates.
func (s *Service) Settings(ctx context.Context) (*RateSettingsView, error) {
	rs, err := s.settings.GetRateSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate settings: %w", err)
	}
	rawBuy, rawSell, err := s.source.RawRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw rates: %w", err)
	}

	return &RateSettingsView{
		BuyMarkupPercent:  rs.BuyMarkupPercent,
		SellMarkupPercent: rs.SellMarkupPercent,
		RawBuyRate:        rawBuy,
		RawSellRate:       rawSell,
		FinalBuyRate:      applyMarkup(rawBuy, rs.SellMarkupPercent),
		FinalSellRate:     applyMarkup(rawSell, rs.BuyMarkupPercent),
		UpdatedBy:         rs.UpdatedBy,
		UpdatedAt:         rs.UpdatedAt,
	}, nil
}

// UpdateSettings stores new markup percentages and drops the rate cache.
func (s *Service) UpdateSettings(ctx context.Context, buyMarkup, sellMarkup decimal.Decimal, updatedBy string) (*RateSettingsView, error) {
	rs := &models.RateSettings{
		BuyMarkupPercent:  buyMarkup,
		SellMarkupPercent: sellMarkup,
		UpdatedBy:         updatedBy,
	}
	if err := s.settings.SaveRateSettings(ctx, rs); err != nil {
		return nil, fmt.Errorf("save rate settings: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
			zap.L().Warn("failed to invalidate rate cache", zap.Error(err))
		}
	}
	return s.Settings(ctx)
}

// applyMarkup computes raw * (1 + percent/100) rounded to 2 places. The
// provider quotes the pair from its own side, so the buy markup lands on the
// sell rate and vice versa; callers pass the crossed markup.
func applyMarkup(raw, percent decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return raw.Mul(one.Add(percent.Div(hundred))).Round(2)
}
