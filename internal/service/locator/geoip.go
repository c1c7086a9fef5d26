package locator

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// GeoIPLocator resolves addresses from a local MaxMind GeoLite2-City database.
// The reader is safe for concurrent lookups.
type GeoIPLocator struct {
	reader cityReader
	closer func() error
}

// OpenGeoIP opens the database at path.
func OpenGeoIP(path string) (*GeoIPLocator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	return &GeoIPLocator{reader: r, closer: r.Close}, nil
}

// Close releases the database.
func (g *GeoIPLocator) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func (g *GeoIPLocator) Locate(_ context.Context, ip string) (Location, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Unknown(), fmt.Errorf("%w: invalid ip %q", ErrLookupFailed, ip)
	}
	rec, err := g.reader.City(parsed)
	if err != nil {
		return Unknown(), fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if rec.Country.IsoCode == "" && len(rec.City.Names) == 0 {
		return Unknown(), fmt.Errorf("%w: no record for %s", ErrLookupFailed, ip)
	}
	loc := Location{
		Country:   rec.Country.Names["en"],
		City:      rec.City.Names["en"],
		Latitude:  rec.Location.Latitude,
		Longitude: rec.Location.Longitude,
	}
	if len(rec.Subdivisions) > 0 {
		loc.Region = rec.Subdivisions[0].Names["en"]
	}
	return loc.orUnknown(), nil
}

// Compile-time interface check
var _ Locator = (*GeoIPLocator)(nil)
