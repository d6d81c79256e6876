package reputation

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoLiteResolver answers geolocation from a local GeoLite2 City database
// instead of the HTTP service. City databases carry no ISP data, so ISP
// stays empty and the caller falls back to the score service's value.
type GeoLiteResolver struct {
	db *geoip2.Reader
}

// OpenGeoLite opens the mmdb file at path.
func OpenGeoLite(path string) (*GeoLiteResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geolite database: %w", err)
	}
	return &GeoLiteResolver{db: db}, nil
}

func (r *GeoLiteResolver) Resolve(_ context.Context, ip string) (string, string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", "", fmt.Errorf("invalid IP %q", ip)
	}

	rec, err := r.db.City(parsed)
	if err != nil {
		return "", "", fmt.Errorf("geolite city lookup: %w", err)
	}

	city := rec.City.Names["en"]
	region := ""
	if len(rec.Subdivisions) > 0 {
		region = rec.Subdivisions[0].Names["en"]
	}
	if region == "" {
		region = rec.Country.Names["en"]
	}

	location := city
	if region != "" {
		if location != "" {
			location += ", "
		}
		location += region
	}
	if location == "" {
		return "", "", fmt.Errorf("no location data for %s", ip)
	}
	return location, "", nil
}

func (r *GeoLiteResolver) Close() error {
	return r.db.Close()
}
