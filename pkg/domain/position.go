package domain

// GlobalPosition is the fused position estimate of the vehicle.
type GlobalPosition struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
	Alt float64 `json:"alt" yaml:"alt"` // Absolute altitude in meters
	Yaw float64 `json:"yaw" yaml:"yaw"` // Radians
}

// HomePosition is the launch point the vehicle returns to.
type HomePosition struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
	Alt float64 `json:"alt" yaml:"alt"`
	Yaw float64 `json:"yaw" yaml:"yaw"`
}
