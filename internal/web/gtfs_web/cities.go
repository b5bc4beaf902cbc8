package gtfs_web

// Tile is one headline metric on the dashboard.
type Tile struct {
	Label  string
	Value  string
	Accent string
}

type City struct {
	Name  string
	Tiles []Tile
}

func DefaultCities() []City {
	return []City{
		{
			Name: "New York",
			Tiles: []Tile{
				{Label: "Fuel Consumption", Value: "15234 L", Accent: "blue"},
				{Label: "Carbon Emissions", Value: "2456 kg", Accent: "green"},
				{Label: "On-Time Performance", Value: "98.5%", Accent: "orange"},
				{Label: "User Satisfaction", Value: "4.8/5", Accent: "purple"},
			},
		},
		{
			Name: "Kanpur",
			Tiles: []Tile{
				{Label: "Fuel Consumption", Value: "12000 L", Accent: "blue"},
				{Label: "Carbon Emissions", Value: "1800 kg", Accent: "green"},
				{Label: "On-Time Performance", Value: "92.3%", Accent: "orange"},
				{Label: "User Satisfaction", Value: "4.5/5", Accent: "purple"},
			},
		},
	}
}

func findCity(cities []City, name string) (City, bool) {
	for _, city := range cities {
		if city.Name == name {
			return city, true
		}
	}
	return City{}, false
}
