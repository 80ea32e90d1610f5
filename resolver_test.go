package pnlkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pnlkit/pnlkit/cache"
	"github.com/pnlkit/pnlkit/date"
)

func TestResolverListingMemoized(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(t, src)

	for i := 0; i < 3; i++ {
		exchange, tk, err := r.Listing(context.Background(), "US1")
		if err != nil {
			t.Fatalf("Listing: %v", err)
		}
		if exchange != "XTST" || tk != ticker("US1") {
			t.Fatalf("listing = %s/%s", exchange, tk)
		}
	}
	if src.calls["search"] != 1 {
		t.Errorf("search called %d times, want 1 (memoized)", src.calls["search"])
	}
}

func TestResolverListingNotFound(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(t, src)
	// wrap the stub to return no results
	r.Source = noResults{src}

	_, _, err := r.Listing(context.Background(), "XX0")
	if !errors.Is(err, ErrTickerNotFound) {
		t.Fatalf("got %v, want ErrTickerNotFound", err)
	}

	// failed lookups are never cached: the next call searches again
	_, _, _ = r.Listing(context.Background(), "XX0")
	if src.calls["search"] != 2 {
		t.Errorf("search called %d times, want 2", src.calls["search"])
	}
}

// noResults wraps a MarketSource, emptying every search.
type noResults struct{ *stubSource }

func (n noResults) Search(ctx context.Context, term string) ([]SearchResult, error) {
	n.count("search")
	return nil, nil
}

func TestResolverExchangeRate(t *testing.T) {
	src := &stubSource{}
	src.setRate(EUR, USD, 5, 1.0825)
	r := newTestResolver(t, src)

	// identical currencies need no lookup at all
	rate, err := r.ExchangeRate(context.Background(), USD, USD, day(5))
	if err != nil || rate != 1 {
		t.Fatalf("identity rate = %v, %v", rate, err)
	}
	if src.calls["rate"] != 0 {
		t.Errorf("rate fetched for identical currencies")
	}

	for i := 0; i < 3; i++ {
		rate, err = r.ExchangeRate(context.Background(), EUR, USD, day(5))
		if err != nil {
			t.Fatalf("ExchangeRate: %v", err)
		}
		if rate != 1.0825 {
			t.Fatalf("rate = %v, want 1.0825", rate)
		}
	}
	if src.calls["rate"] != 1 {
		t.Errorf("rate fetched %d times, want 1 (cached forever)", src.calls["rate"])
	}
}

func TestResolverPriceMemoized(t *testing.T) {
	src := &stubSource{}
	src.setPrice("US1", 5, USD, 1234)
	r := newTestResolver(t, src)

	for i := 0; i < 3; i++ {
		price, err := r.Price(context.Background(), "US1", day(5), USD)
		if err != nil {
			t.Fatalf("Price: %v", err)
		}
		if price != 1234 {
			t.Fatalf("price = %d, want 1234", price)
		}
	}
	if src.calls["price"] != 1 {
		t.Errorf("price fetched %d times, want 1 (cached forever)", src.calls["price"])
	}
}

func TestResolverPriceConversionFloors(t *testing.T) {
	src := &stubSource{}
	src.setPrice("DE1", 5, EUR, 999)
	src.setRate(EUR, USD, 5, 1.1111)
	r := newTestResolver(t, src)

	price, err := r.Price(context.Background(), "DE1", day(5), USD)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	// 999 * 1.1111 = 1109.9889, floored
	if price != 1109 {
		t.Errorf("price = %d, want 1109", price)
	}
}

func TestResolverPriceInvalid(t *testing.T) {
	src := &stubSource{}
	src.setPrice("US1", 5, USD, -100)
	r := newTestResolver(t, src)

	_, err := r.Price(context.Background(), "US1", day(5), USD)
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("got %v, want ErrInvalidPrice", err)
	}
	// invalid results are not cached
	_, _ = r.Price(context.Background(), "US1", day(5), USD)
	if src.calls["price"] != 2 {
		t.Errorf("price fetched %d times, want 2", src.calls["price"])
	}
}

func TestResolverPutPrice(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(t, src)

	if err := r.PutPrice("US1", date.New(2024, 1, 5), USD, 4321); err != nil {
		t.Fatalf("PutPrice: %v", err)
	}
	price, err := r.Price(context.Background(), "US1", day(5), USD)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if price != 4321 {
		t.Errorf("price = %d, want 4321 (pre-warmed)", price)
	}
	if src.calls["price"] != 0 {
		t.Errorf("price fetched %d times, want 0", src.calls["price"])
	}

	if err := r.PutPrice("US1", date.New(2024, 1, 5), USD, -1); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative PutPrice: got %v, want ErrInvalidPrice", err)
	}
}

func TestResolverStockSplitsShortLived(t *testing.T) {
	src := &stubSource{
		splits: map[string][]Split{
			ticker("US1"): {{Time: day(3), Ratio: 4}},
		},
	}
	r := newTestResolver(t, src)

	for i := 0; i < 2; i++ {
		splits, err := r.StockSplits(context.Background(), "US1", day(1), day(10))
		if err != nil {
			t.Fatalf("StockSplits: %v", err)
		}
		if len(splits) != 1 || splits[0].Ratio != 4 {
			t.Fatalf("splits = %v", splits)
		}
	}
	if src.calls["splits"] != 1 {
		t.Errorf("splits fetched %d times, want 1 (cached)", src.calls["splits"])
	}

	// an empty result is still a result, cached as an empty list
	splits, err := r.StockSplits(context.Background(), "US2", day(1), day(10))
	if err != nil {
		t.Fatalf("StockSplits: %v", err)
	}
	if splits == nil || len(splits) != 0 {
		t.Errorf("splits = %#v, want empty non-nil", splits)
	}
}

func TestResolverCacheOverride(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(t, src)
	// pin a price through an override, shadowing whatever the source says
	r.Cache = &cache.Override{
		Overrides:  map[string][]byte{"price/US1/USD/2024-01-05": []byte("7777")},
		Underlying: cache.NewMemory(),
	}

	price, err := r.Price(context.Background(), "US1", day(5), USD)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if price != 7777 {
		t.Errorf("price = %d, want 7777 (override)", price)
	}
}

func TestNearestPrior(t *testing.T) {
	series := map[date.Date]OHLC{
		date.New(2024, 1, 5): {Close: 1.05},
		date.New(2024, 1, 2): {Close: 1.02},
	}
	r := &Resolver{}

	cases := []struct {
		name      string
		day       date.Date
		wantClose float64
		wantDay   date.Date
		wantErr   bool
	}{
		{"exact hit", date.New(2024, 1, 5), 1.05, date.New(2024, 1, 5), false},
		{"weekend gap fills backward", date.New(2024, 1, 4), 1.02, date.New(2024, 1, 2), false},
		{"never fills forward", date.New(2024, 1, 1), 0, date.Date{}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, d, err := r.nearestPrior(series, c.day)
			if c.wantErr {
				if !errors.Is(err, ErrFXDateUnresolved) {
					t.Fatalf("got %v, want ErrFXDateUnresolved", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("nearestPrior: %v", err)
			}
			if v.Close != c.wantClose || d != c.wantDay {
				t.Errorf("got %v at %s, want %v at %s", v.Close, d, c.wantClose, c.wantDay)
			}
		})
	}
}

func TestNearestPriorBounded(t *testing.T) {
	// an empty series must terminate within the lookback bound
	r := &Resolver{MaxLookback: 3}
	_, _, err := r.nearestPrior(map[date.Date]OHLC{}, date.New(2024, 6, 1))
	if !errors.Is(err, ErrFXDateUnresolved) {
		t.Fatalf("got %v, want ErrFXDateUnresolved", err)
	}

	// a value just inside the bound is found
	series := map[date.Date]OHLC{date.New(2024, 5, 29): {Close: 2}}
	v, _, err := r.nearestPrior(series, date.New(2024, 6, 1))
	if err != nil || v.Close != 2 {
		t.Fatalf("got %v, %v", v, err)
	}
}

// TTL sanity: the listing TTL is long but finite, splits are short-lived,
// prices and rates never expire.
func TestCacheLifetimes(t *testing.T) {
	if TTLListing != 365*24*time.Hour {
		t.Errorf("TTLListing = %v", TTLListing)
	}
	if TTLSplits != 24*time.Hour {
		t.Errorf("TTLSplits = %v", TTLSplits)
	}
	if TTLForever != 0 {
		t.Errorf("TTLForever = %v", TTLForever)
	}
}
