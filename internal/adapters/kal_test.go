package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKAL_FetchMarkets_ConvertsCentsToDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"markets":[
			{"ticker":"KAL1","title":"Recession","market_type":"binary","status":"open",
			 "yes_ask":51,"no_ask":48,"close_time":"2025-12-31T00:00:00Z","liquidity":100000}
		]}`))
	}))
	defer srv.Close()

	limiter := unlimited()
	defer limiter.Close()

	kal := NewKAL(srv.URL, 5*time.Second, limiter, zap.NewNop())
	markets, err := kal.FetchMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	require.True(t, m.Outcomes[0].Price.Equal(mustDecimal("0.51")))
	require.True(t, m.Outcomes[1].Price.Equal(mustDecimal("0.48")))
	require.True(t, m.Liquidity.Equal(mustDecimal("1000")))
}

func TestKAL_FetchMarkets_AcceptsEitherStatusTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"markets":[
			{"ticker":"A","title":"A","market_type":"binary","status":"active","yes_ask":50,"no_ask":50},
			{"ticker":"B","title":"B","market_type":"binary","status":"open","yes_ask":50,"no_ask":50},
			{"ticker":"C","title":"C","market_type":"binary","status":"closed","yes_ask":50,"no_ask":50}
		]}`))
	}))
	defer srv.Close()

	limiter := unlimited()
	defer limiter.Close()

	kal := NewKAL(srv.URL, 5*time.Second, limiter, zap.NewNop())
	markets, err := kal.FetchMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 2)
}

func TestKAL_FetchMarkets_RequiresBothAskSides(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"markets":[
			{"ticker":"missing-no","title":"X","market_type":"binary","status":"open","yes_ask":50}
		]}`))
	}))
	defer srv.Close()

	limiter := unlimited()
	defer limiter.Close()

	kal := NewKAL(srv.URL, 5*time.Second, limiter, zap.NewNop())
	markets, err := kal.FetchMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, markets)
}
