package models

// Driver is the subset of the driver directory the booking core reads.
type Driver struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"userId"`
	VehicleRegNumber string `json:"vehicleRegNumber"`
	VehicleType      string `json:"vehicleType"`
	VehicleCapacity  int    `json:"vehicleCapacity"`
}

type Stop struct {
	ID              int64   `json:"id"`
	RouteTemplateID int64   `json:"routeTemplateId"`
	Name            string  `json:"name"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Seq             int     `json:"seq"`
}

// RouteTemplate carries fare rules; amounts are in minor units.
type RouteTemplate struct {
	ID         int64  `json:"id"`
	FromName   string `json:"from"`
	ToName     string `json:"to"`
	BaseFare   int64  `json:"baseFare"`
	PricePerKm int64  `json:"pricePerKm"`
	Stops      []Stop `json:"stops"`
}

// StopByID returns the stop with id when it belongs to the template.
func (r RouteTemplate) StopByID(id int64) (Stop, bool) {
	for _, s := range r.Stops {
		if s.ID == id {
			return s, true
		}
	}
	return Stop{}, false
}
