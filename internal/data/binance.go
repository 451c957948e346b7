package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"grid-backtest/internal/logger"
	"grid-backtest/internal/model"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/sirupsen/logrus"
)

// MaxKlinesPerPage is the largest page the futures klines endpoint serves.
const MaxKlinesPerPage = 1500

// BinanceSource reads USD-M futures klines from the public Binance API.
type BinanceSource struct {
	client *futures.Client
	// PageLimit caps each request; defaults to MaxKlinesPerPage.
	PageLimit int
}

// NewBinanceSource creates an unauthenticated client.
// If baseURL is empty, the library's production endpoint is used.
func NewBinanceSource(baseURL string) *BinanceSource {
	client := futures.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return NewBinanceSourceWithClient(client)
}

func NewBinanceSourceWithClient(client *futures.Client) *BinanceSource {
	return &BinanceSource{client: client, PageLimit: MaxKlinesPerPage}
}

// Client exposes the underlying futures client for exchange info lookups.
func (s *BinanceSource) Client() *futures.Client {
	return s.client
}

// Bars pages through the klines endpoint from q.Start to q.End.
// Candles whose OHLC fields do not parse or fail Bar.Validate are dropped.
func (s *BinanceSource) Bars(ctx context.Context, q Query) ([]model.Bar, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	limit := s.PageLimit
	if limit <= 0 || limit > MaxKlinesPerPage {
		limit = MaxKlinesPerPage
	}
	end := q.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	startMs, endMs := q.Start.UnixMilli(), end.UnixMilli()

	log := logger.WithFields(logrus.Fields{
		"symbol":   q.Symbol,
		"interval": q.Interval,
	})

	var out []model.Bar
	dropped, pages := 0, 0
	started := time.Now()
	for startMs <= endMs {
		page, err := s.client.NewKlinesService().
			Symbol(q.Symbol).
			Interval(q.Interval).
			StartTime(startMs).
			EndTime(endMs).
			Limit(limit).
			Do(ctx)
		if err != nil {
			log.WithError(err).Warnf("klines request failed (page=%d)", pages)
			return nil, fmt.Errorf("fetch klines %s: %w", q, err)
		}
		pages++
		if len(page) == 0 {
			break
		}
		for _, k := range page {
			bar, ok := klineToBar(k)
			if !ok {
				dropped++
				continue
			}
			out = append(out, bar)
		}
		last := page[len(page)-1].OpenTime
		if len(page) < limit || last < startMs {
			break
		}
		startMs = last + 1
	}

	log.Infof("fetched %d bars in %d pages (dropped=%d, duration=%v)", len(out), pages, dropped, time.Since(started))
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no klines returned for %s", model.ErrEmptyInput, q)
	}
	return model.SortBars(out), nil
}

func klineToBar(k *futures.Kline) (model.Bar, bool) {
	if k == nil {
		return model.Bar{}, false
	}
	vals := make([]float64, 4)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Bar{}, false
		}
		vals[i] = v
	}
	vol, _ := strconv.ParseFloat(k.Volume, 64)
	bar := model.Bar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vol,
	}
	if bar.Validate() != nil {
		return model.Bar{}, false
	}
	return bar, true
}
