package reputation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(geoURL, scoreURL string) *Client {
	c := NewClient(2*time.Second, 1)
	c.GeoURL = geoURL
	c.ScoreURL = scoreURL
	return c
}

func geoOK(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","query":"1.2.3.4","city":"Berlin","regionName":"Berlin","isp":"Example Carrier"}`)
	}))
}

func scoreOK(t *testing.T, fraudScore int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success":true,"fraud_score":%d,"ISP":"Score ISP","proxy":true,"vpn":false,"tor":false,"mobile":false,"recent_abuse":true,"bot_status":false}`, fraudScore)
	}))
}

func TestLookup_CombinesBothServices(t *testing.T) {
	geo := geoOK(t)
	defer geo.Close()
	score := scoreOK(t, 42)
	defer score.Close()

	c := newTestClient(geo.URL+"/", score.URL)
	rec, err := c.Lookup(context.Background(), "1.2.3.4", "key")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.Location != "Berlin, Berlin" {
		t.Fatalf("bad location: %q", rec.Location)
	}
	if rec.ISP != "Example Carrier" {
		t.Fatalf("bad ISP: %q", rec.ISP)
	}
	if rec.FraudScore != 42 {
		t.Fatalf("bad fraud score: %d", rec.FraudScore)
	}
	if !rec.Flags.IsProxy || !rec.Flags.RecentAbuse || rec.Flags.IsVPN {
		t.Fatalf("bad flags: %#v", rec.Flags)
	}
}

func TestLookup_GeoFailureDegradesToUnknown(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer geo.Close()
	score := scoreOK(t, 55)
	defer score.Close()

	c := newTestClient(geo.URL+"/", score.URL)
	rec, err := c.Lookup(context.Background(), "1.2.3.4", "key")
	if err != nil {
		t.Fatalf("geo failure must not fail the lookup: %v", err)
	}
	if rec.Location != Unknown {
		t.Fatalf("expected sentinel location, got %q", rec.Location)
	}
	// ISP falls back to the score service's value.
	if rec.ISP != "Score ISP" {
		t.Fatalf("expected score ISP fallback, got %q", rec.ISP)
	}
	if rec.FraudScore != 55 {
		t.Fatalf("bad fraud score: %d", rec.FraudScore)
	}
}

func TestLookup_ScoreFailureIsFatal(t *testing.T) {
	geo := geoOK(t)
	defer geo.Close()
	score := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"invalid api key"}`)
	}))
	defer score.Close()

	c := newTestClient(geo.URL+"/", score.URL)
	_, err := c.Lookup(context.Background(), "1.2.3.4", "bad-key")
	if err == nil {
		t.Fatalf("expected error")
	}
	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LookupError, got %T: %v", err, err)
	}
	if le.Kind != ScoreUnavailable {
		t.Fatalf("expected ScoreUnavailable, got %s", le.Kind)
	}
}

func TestLookup_ScoreOutOfRangeIsRejected(t *testing.T) {
	geo := geoOK(t)
	defer geo.Close()
	score := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"fraud_score":250}`)
	}))
	defer score.Close()

	c := newTestClient(geo.URL+"/", score.URL)
	_, err := c.Lookup(context.Background(), "1.2.3.4", "key")
	var le *LookupError
	if !errors.As(err, &le) || le.Kind != ScoreUnavailable {
		t.Fatalf("expected ScoreUnavailable for out-of-range score, got %v", err)
	}
}

func TestLookup_EmptyKeyStillAttemptsCall(t *testing.T) {
	geo := geoOK(t)
	defer geo.Close()

	called := false
	score := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		fmt.Fprint(w, `{"success":true,"fraud_score":5}`)
	}))
	defer score.Close()

	c := newTestClient(geo.URL+"/", score.URL)
	rec, err := c.Lookup(context.Background(), "1.2.3.4", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !called {
		t.Fatalf("score service was never called")
	}
	if rec.FraudScore != 5 {
		t.Fatalf("bad fraud score: %d", rec.FraudScore)
	}
}
