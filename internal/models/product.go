package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductOption is a customization the shop charges extra for.
type ProductOption struct {
	Name      string  `bson:"name" json:"name"`
	Surcharge float64 `bson:"surcharge" json:"surcharge"`
}

// ProductStats tracks usage counters bumped on every order.
type ProductStats struct {
	Orders        int        `bson:"orders" json:"orders"`
	UnitsSold     int        `bson:"unitsSold" json:"unitsSold"`
	LastOrderedAt *time.Time `bson:"lastOrderedAt,omitempty" json:"lastOrderedAt,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	BasePrice   float64            `bson:"basePrice" json:"basePrice"`
	Options     []ProductOption    `bson:"options" json:"options"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImagePath   string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Stats       ProductStats       `bson:"stats" json:"stats"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// OptionSurcharges sums the surcharges for the named options. Unknown names
// are ignored, matching the quoting behavior.
func (p *Product) OptionSurcharges(names []string) float64 {
	var sum float64
	for _, name := range names {
		for _, opt := range p.Options {
			if opt.Name == name {
				sum += opt.Surcharge
				break
			}
		}
	}
	return sum
}
