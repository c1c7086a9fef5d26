package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/janisto/subscriber-pipeline/internal/platform/timeutil"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
	"github.com/janisto/subscriber-pipeline/internal/service/subscriber"
)

type demoSubscriber struct {
	name, email, country, region, city string
	lat, lon                           float64
}

var demoSubscribers = []demoSubscriber{
	{"John Smith", "john.smith@example.com", "United States", "California", "San Francisco", 37.7749, -122.4194},
	{"Sarah Johnson", "sarah.johnson@example.com", "United States", "New York", "New York City", 40.7128, -74.0060},
	{"Michael Brown", "michael.brown@example.com", "United States", "Texas", "Austin", 30.2672, -97.7431},
	{"Emily Davis", "emily.davis@example.com", "United States", "Florida", "Miami", 25.7617, -80.1918},
	{"Emma Thompson", "emma.thompson@example.com", "Canada", "Ontario", "Toronto", 43.6532, -79.3832},
	{"Olivia Martinez", "olivia.martinez@example.com", "United Kingdom", "England", "London", 51.5074, -0.1278},
	{"Sophia Garcia", "sophia.garcia@example.com", "Spain", "Madrid", "Madrid", 40.4168, -3.7038},
	{"Ethan Lee", "ethan.lee@example.com", "Japan", "Tokyo", "Tokyo", 35.6762, 139.6503},
	{"Ava Walker", "ava.walker@example.com", "Australia", "New South Wales", "Sydney", -33.8688, 151.2093},
	{"Lucas Young", "lucas.young@example.com", "Germany", "Berlin", "Berlin", 52.5200, 13.4050},
}

func newSeedCmd(open opener) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append demo subscribers",
		Long:  "Appends demo subscribers with timestamps spread over the last --days days. Emails already stored are skipped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), open, func(s store.RecordStore) error {
				added, err := seed(cmd.Context(), s, time.Now(), days, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
				if err != nil {
					return err
				}
				cmd.Printf("added %d of %d demo subscribers\n", added, len(demoSubscribers))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "spread timestamps over this many days")
	return cmd
}

func seed(ctx context.Context, s store.RecordStore, now time.Time, days int, rng *rand.Rand) (int, error) {
	if days < 1 {
		return 0, fmt.Errorf("--days must be positive, got %d", days)
	}
	col, err := s.Column(ctx, store.ColEmail)
	if err != nil {
		return 0, err
	}
	stored := make(map[string]bool, len(col))
	for _, e := range col {
		stored[subscriber.Normalize(e)] = true
	}

	base := now.Add(-time.Duration(days) * 24 * time.Hour)
	added := 0
	for _, d := range demoSubscribers {
		email := subscriber.Normalize(d.email)
		if stored[email] {
			continue
		}
		ts := base.Add(time.Duration(rng.IntN(days*24*60)) * time.Minute)
		rec := store.Record{
			Name:      subscriber.Normalize(d.name),
			Email:     email,
			Timestamp: timeutil.FormatRow(ts),
			IPAddress: fmt.Sprintf("192.168.%d.%d", rng.IntN(255)+1, rng.IntN(255)+1),
			Country:   subscriber.Normalize(d.country),
			Region:    subscriber.Normalize(d.region),
			City:      subscriber.Normalize(d.city),
			Latitude:  d.lat,
			Longitude: d.lon,
		}
		if err := s.Append(ctx, rec); err != nil {
			return added, fmt.Errorf("appending %s: %w", email, err)
		}
		stored[email] = true
		added++
	}
	return added, nil
}
