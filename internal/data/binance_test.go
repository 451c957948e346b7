package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"grid-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// klineRow mimics one futures klines row: 12 fields, times as numbers.
func klineRow(openMs int64, o, h, l, c string) []interface{} {
	return []interface{}{openMs, o, h, l, c, "12.5", openMs + 59_999, "1000", 42, "6", "500", "0"}
}

// fakeKlines serves n one-minute candles starting at day, honoring
// startTime, endTime and limit like the real endpoint.
func fakeKlines(t *testing.T, n int, bad map[int]bool, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1m", q.Get("interval"))
		start, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("endTime"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))

		rows := make([][]interface{}, 0)
		for i := 0; i < n && len(rows) < limit; i++ {
			ms := day.Add(time.Duration(i) * time.Minute).UnixMilli()
			if ms < start || ms > end {
				continue
			}
			price := strconv.Itoa(100 + i)
			if bad[i] {
				rows = append(rows, klineRow(ms, "x", price, price, price))
				continue
			}
			rows = append(rows, klineRow(ms, price, price+".5", strconv.Itoa(99+i), price))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	}))
}

func TestBinanceSourcePaginates(t *testing.T) {
	var calls int32
	srv := fakeKlines(t, 5, nil, &calls)
	defer srv.Close()

	src := NewBinanceSource(srv.URL)
	src.PageLimit = 2
	bars, err := src.Bars(context.Background(), Query{
		Symbol:   "BTCUSDT",
		Interval: "1m",
		Start:    day,
		End:      day.Add(time.Hour),
	})
	require.NoError(t, err)

	require.Len(t, bars, 5)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, day, bars[0].Time)
	assert.Equal(t, day.Add(4*time.Minute), bars[4].Time)
	assert.Equal(t, model.Bar{Time: day.Add(time.Minute), Open: 101, High: 101.5, Low: 100, Close: 101, Volume: 12.5}, bars[1])
}

func TestBinanceSourceDropsUnparsableRows(t *testing.T) {
	var calls int32
	srv := fakeKlines(t, 4, map[int]bool{2: true}, &calls)
	defer srv.Close()

	bars, err := NewBinanceSource(srv.URL).Bars(context.Background(), Query{
		Symbol: "BTCUSDT", Interval: "1m", Start: day, End: day.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 103.0, bars[2].Close)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBinanceSourceDropsInvalidBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms := func(i int) int64 { return day.Add(time.Duration(i) * time.Minute).UnixMilli() }
		rows := [][]interface{}{
			klineRow(ms(0), "100", "101", "99", "100"),
			klineRow(ms(1), "NaN", "NaN", "NaN", "NaN"),
			klineRow(ms(2), "100", "98", "102", "100"),
			klineRow(ms(3), "101", "102", "100", "101"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	bars, err := NewBinanceSource(srv.URL).Bars(context.Background(), Query{
		Symbol: "BTCUSDT", Interval: "1m", Start: day, End: day.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, day, bars[0].Time)
	assert.Equal(t, day.Add(3*time.Minute), bars[1].Time)
}

func TestBinanceSourceEmpty(t *testing.T) {
	var calls int32
	srv := fakeKlines(t, 0, nil, &calls)
	defer srv.Close()

	_, err := NewBinanceSource(srv.URL).Bars(context.Background(), Query{
		Symbol: "BTCUSDT", Interval: "1m", Start: day, End: day.Add(time.Hour),
	})
	require.ErrorIs(t, err, model.ErrEmptyInput)
}

func TestBinanceSourceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := NewBinanceSource(srv.URL).Bars(context.Background(), Query{
		Symbol: "NOPE", Interval: "1m", Start: day, End: day.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestBinanceSourceValidatesQuery(t *testing.T) {
	_, err := NewBinanceSource("http://127.0.0.1:1").Bars(context.Background(), Query{Interval: "1m", Start: day})
	require.ErrorIs(t, err, model.ErrInvalidParameter)
}
