package subscribers

import (
	subscribersvc "github.com/janisto/subscriber-pipeline/internal/service/subscriber"
)

// Subscriber is one stored row.
type Subscriber struct {
	Name      string  `json:"name"       doc:"Normalized name"           example:"jane doe"`
	Email     string  `json:"email"      doc:"Normalized email"          example:"jane@example.com"`
	Timestamp string  `json:"timestamp"  doc:"Subscription time"         example:"2024-03-01 09:15:00"`
	IPAddress string  `json:"ip_address" doc:"Client IP at subscription" example:"8.8.8.8"`
	Country   string  `json:"country"    doc:"Country from IP lookup"    example:"united states"`
	Region    string  `json:"region"     doc:"Region from IP lookup"     example:"california"`
	City      string  `json:"city"       doc:"City from IP lookup"       example:"mountain view"`
	Latitude  float64 `json:"lat"        doc:"Latitude"                  example:"37.4"`
	Longitude float64 `json:"lon"        doc:"Longitude"                 example:"-122.1"`
}

// Unsubscribed reports the removed row and where it was.
type Unsubscribed struct {
	Subscriber
	Row int `json:"row" doc:"Sheet position the row occupied" example:"2"`
}

// SubscriberList is the filtered listing.
type SubscriberList struct {
	Subscribers []Subscriber `json:"subscribers"`
	Count       int          `json:"count" doc:"Number of subscribers returned" example:"1"`
}

func toHTTPSubscriber(s subscribersvc.Subscriber) Subscriber {
	return Subscriber{
		Name:      s.Name,
		Email:     s.Email,
		Timestamp: s.Timestamp,
		IPAddress: s.IPAddress,
		Country:   s.Country,
		Region:    s.Region,
		City:      s.City,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}
}
