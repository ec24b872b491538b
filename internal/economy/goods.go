// Package economy provides market mechanics: scarcity pricing, atomic trade,
// negotiation, merchant routes and periodic restocking.
package economy

import "github.com/emberhollow/aicore/internal/sim"

// Category groups goods for seasonal, weather and event price modifiers.
type Category string

const (
	CategoryFood      Category = "food"
	CategoryMaterials Category = "materials"
	CategoryWeapons   Category = "weapons"
	CategoryClothing  Category = "clothing"
	CategoryMedicine  Category = "medicine"
	CategoryLuxury    Category = "luxury"
)

// Good is one entry in the data-driven goods catalog.
type Good struct {
	Name      string   `json:"name" yaml:"name"`
	Category  Category `json:"category" yaml:"category"`
	BasePrice float64  `json:"base_price" yaml:"base_price"`
}

// DefaultGoodsTable is the shipped goods catalog. Config may extend or
// override it.
func DefaultGoodsTable() map[string]Good {
	return map[string]Good{
		"bread":    {Name: "bread", Category: CategoryFood, BasePrice: 5},
		"fish":     {Name: "fish", Category: CategoryFood, BasePrice: 4},
		"apple":    {Name: "apple", Category: CategoryFood, BasePrice: 2},
		"timber":   {Name: "timber", Category: CategoryMaterials, BasePrice: 3},
		"iron":     {Name: "iron", Category: CategoryMaterials, BasePrice: 8},
		"stone":    {Name: "stone", Category: CategoryMaterials, BasePrice: 3},
		"sword":    {Name: "sword", Category: CategoryWeapons, BasePrice: 40},
		"bow":      {Name: "bow", Category: CategoryWeapons, BasePrice: 25},
		"cloak":    {Name: "cloak", Category: CategoryClothing, BasePrice: 12},
		"boots":    {Name: "boots", Category: CategoryClothing, BasePrice: 10},
		"potion":   {Name: "potion", Category: CategoryMedicine, BasePrice: 20},
		"bandage":  {Name: "bandage", Category: CategoryMedicine, BasePrice: 6},
		"gem":      {Name: "gem", Category: CategoryLuxury, BasePrice: 60},
		"perfume":  {Name: "perfume", Category: CategoryLuxury, BasePrice: 35},
		"tapestry": {Name: "tapestry", Category: CategoryLuxury, BasePrice: 50},
	}
}

// seasonalModifiers scales prices by category through the year. Winter food
// is the steepest: stores run thin.
var seasonalModifiers = map[sim.Season]map[Category]float64{
	sim.SeasonWinter: {
		CategoryFood:     1.4,
		CategoryClothing: 1.25,
		CategoryMedicine: 1.15,
	},
	sim.SeasonSummer: {
		CategoryFood:     0.9,
		CategoryClothing: 0.9,
	},
	sim.SeasonAutumn: {
		CategoryFood: 0.95,
	},
	sim.SeasonSpring: {},
}

// weatherModifiers scales prices by category for today's sky.
var weatherModifiers = map[sim.Weather]map[Category]float64{
	sim.WeatherStorm: {
		CategoryMaterials: 1.2,
		CategoryFood:      1.1,
	},
	sim.WeatherSnow: {
		CategoryFood:     1.15,
		CategoryClothing: 1.1,
	},
	sim.WeatherRain: {
		CategoryFood: 1.05,
	},
}

// eventModifiers scales prices while a named world event is active. All
// active events multiply together.
var eventModifiers = map[string]map[Category]float64{
	"festival": {
		CategoryFood:   1.25,
		CategoryLuxury: 1.3,
	},
	"war": {
		CategoryWeapons:  1.5,
		CategoryMedicine: 1.3,
	},
	"plague": {
		CategoryMedicine: 2.0,
		CategoryLuxury:   0.8,
	},
	"harvest": {
		CategoryFood: 0.7,
	},
}

func modifierFor(table map[Category]float64, cat Category) float64 {
	if table == nil {
		return 1.0
	}
	if m, ok := table[cat]; ok {
		return m
	}
	return 1.0
}
