package models

import "time"

// Provider is the slice of the provider profile this service needs for
// dispatch and notification. Onboarding and identity live elsewhere.
type Provider struct {
	ID                string    `bson:"id" json:"id"`
	Name              string    `bson:"name" json:"name"`
	Phone             string    `bson:"phone,omitempty" json:"phone,omitempty"`
	ServiceCategories []string  `bson:"serviceCategories" json:"serviceCategories"`
	LocationGeo       GeoPoint  `bson:"locationGeo" json:"locationGeo"`
	FCMToken          string    `bson:"fcmToken,omitempty" json:"-"`
	Rating            float64   `bson:"rating,omitempty" json:"rating,omitempty"`
	CompletedBookings int       `bson:"completedBookings" json:"completedBookings"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
}

func (p *Provider) ServesCategory(category string) bool {
	for _, c := range p.ServiceCategories {
		if c == category {
			return true
		}
	}
	return false
}
