package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zpix/proxyscore/internal/model"
)

const (
	// DefaultGeoURL is the geolocation-by-IP service (JSON contract:
	// status/query/city/regionName/isp).
	DefaultGeoURL = "http://ip-api.com/json/"
	// DefaultScoreURL is the fraud-score service base; the key and IP are
	// appended as path segments.
	DefaultScoreURL = "https://ipqualityscore.com/api/json/ip"

	// Unknown is the sentinel for location/ISP when geolocation is unavailable.
	Unknown = "unknown"
)

// GeoResolver answers location/ISP for an IP. The HTTP geolocation service is
// the default; a local GeoLite2 database can stand in for it.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (location, isp string, err error)
}

// Client queries the geolocation and fraud-score services for a resolved
// public IP and combines both answers into one ReputationRecord.
//
// Geolocation is best-effort: if it fails, Location/ISP degrade to Unknown.
// The fraud score is mandatory: its failure fails the lookup with
// ScoreUnavailable.
type Client struct {
	HTTP       *http.Client
	GeoURL     string
	ScoreURL   string
	Strictness int

	// Geo overrides the HTTP geolocation service when set.
	Geo GeoResolver
}

// NewClient returns a Client with the default service endpoints and the given
// per-request timeout.
func NewClient(timeout time.Duration, strictness int) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		GeoURL:     DefaultGeoURL,
		ScoreURL:   DefaultScoreURL,
		Strictness: strictness,
	}
}

// Lookup runs the two queries concurrently for ip. An empty apiKey still
// attempts the fraud-score call; the service's own error comes back as
// ScoreUnavailable.
func (c *Client) Lookup(ctx context.Context, ip, apiKey string) (model.ReputationRecord, error) {
	var (
		location, geoISP string
		score            scoreResponse
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		loc, isp, err := c.resolveGeo(gctx, ip)
		if err != nil {
			// Supplementary data only; degrade to the sentinel.
			location, geoISP = Unknown, ""
			return nil
		}
		location, geoISP = loc, isp
		return nil
	})

	g.Go(func() error {
		s, err := c.fetchScore(gctx, ip, apiKey)
		if err != nil {
			return &LookupError{Kind: ScoreUnavailable, IP: ip, Err: err}
		}
		score = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.ReputationRecord{}, err
	}

	isp := geoISP
	if isp == "" {
		isp = score.ISP
	}
	if isp == "" {
		isp = Unknown
	}
	if location == "" {
		location = Unknown
	}

	return model.ReputationRecord{
		Location:   location,
		ISP:        isp,
		FraudScore: score.FraudScore,
		Flags: model.Flags{
			IsProxy:     score.Proxy,
			IsVPN:       score.VPN,
			IsTor:       score.Tor,
			IsMobile:    score.Mobile,
			RecentAbuse: score.RecentAbuse,
			IsBot:       score.BotStatus,
		},
	}, nil
}

// geoResponse matches the fields we care about from the geolocation service.
type geoResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Query      string `json:"query"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	ISP        string `json:"isp"`
}

func (c *Client) resolveGeo(ctx context.Context, ip string) (string, string, error) {
	if c.Geo != nil {
		return c.Geo.Resolve(ctx, ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GeoURL+url.PathEscape(ip), nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("geo service returned status %d", resp.StatusCode)
	}

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return "", "", fmt.Errorf("decode geo response: %w", err)
	}
	if geo.Status != "success" {
		return "", "", fmt.Errorf("geo service rejected %s: %s", ip, geo.Message)
	}

	location := geo.City
	if geo.RegionName != "" {
		if location != "" {
			location += ", "
		}
		location += geo.RegionName
	}
	if location == "" {
		location = Unknown
	}
	return location, geo.ISP, nil
}

// scoreResponse matches the fields we care about from the fraud-score service.
// Flags the service omits decode to false.
type scoreResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	FraudScore  int    `json:"fraud_score"`
	ISP         string `json:"ISP"`
	Proxy       bool   `json:"proxy"`
	VPN         bool   `json:"vpn"`
	Tor         bool   `json:"tor"`
	Mobile      bool   `json:"mobile"`
	RecentAbuse bool   `json:"recent_abuse"`
	BotStatus   bool   `json:"bot_status"`
}

func (c *Client) fetchScore(ctx context.Context, ip, apiKey string) (scoreResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?strictness=%d",
		c.ScoreURL, url.PathEscape(apiKey), url.PathEscape(ip), c.Strictness)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return scoreResponse{}, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return scoreResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scoreResponse{}, fmt.Errorf("score service returned status %d", resp.StatusCode)
	}

	var score scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&score); err != nil {
		return scoreResponse{}, fmt.Errorf("decode score response: %w", err)
	}
	if !score.Success {
		return scoreResponse{}, fmt.Errorf("score service rejected request: %s", score.Message)
	}
	if score.FraudScore < 0 || score.FraudScore > 100 {
		return scoreResponse{}, fmt.Errorf("fraud score %d outside 0..100", score.FraudScore)
	}
	return score, nil
}
