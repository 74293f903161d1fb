package geomap

// ScaleFactor converts a provider scale into pixels per degree:
// pixels/degree = K / scale. It is an empirical equatorial value and is not
// corrected for latitude.
const ScaleFactor = 4374754 * 72

// Coordinates is a geographic position in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CoordinatesPixel is an offset within the map image, origin top-left,
// y growing downwards.
type CoordinatesPixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the image a download produced: where it is centered, at which
// scale, and how large it is. Transforms are only meaningful against the
// viewport of the image they are applied to.
type Viewport struct {
	Center Coordinates `json:"center"`
	Scale  int64       `json:"scale"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// Resolution returns the degrees covered by one pixel at scale. A zero scale
// yields 0, which makes every transform degenerate.
func Resolution(scale int64) float64 {
	return 1 / ((1.0 / float64(scale)) * ScaleFactor)
}

// ToPixel maps coord onto an image of width x height centered on center at
// scale.
func ToPixel(coord, center Coordinates, scale int64, width, height int) CoordinatesPixel {
	res := Resolution(scale)
	return CoordinatesPixel{
		X: (coord.Lon-center.Lon)/res + float64(width)/2,
		Y: (center.Lat-coord.Lat)/res + float64(height)/2,
	}
}

// ToCoordinates is the inverse of ToPixel.
func ToCoordinates(pixel CoordinatesPixel, center Coordinates, scale int64, width, height int) Coordinates {
	res := Resolution(scale)
	return Coordinates{
		Lat: center.Lat - (pixel.Y-float64(height)/2)*res,
		Lon: center.Lon + (pixel.X-float64(width)/2)*res,
	}
}

// ToPixel maps coord onto the viewport's image.
func (v Viewport) ToPixel(coord Coordinates) CoordinatesPixel {
	return ToPixel(coord, v.Center, v.Scale, v.Width, v.Height)
}

// ToCoordinates maps a pixel of the viewport's image back to coordinates.
func (v Viewport) ToCoordinates(pixel CoordinatesPixel) Coordinates {
	return ToCoordinates(pixel, v.Center, v.Scale, v.Width, v.Height)
}

// Bounds returns the coordinates of the top-left and bottom-right image
// corners.
func (v Viewport) Bounds() (northWest, southEast Coordinates) {
	northWest = v.ToCoordinates(CoordinatesPixel{X: 0, Y: 0})
	southEast = v.ToCoordinates(CoordinatesPixel{X: float64(v.Width), Y: float64(v.Height)})
	return northWest, southEast
}

// Contains reports whether pixel lies inside the image.
func (v Viewport) Contains(pixel CoordinatesPixel) bool {
	return pixel.X >= 0 && pixel.Y >= 0 && pixel.X < float64(v.Width) && pixel.Y < float64(v.Height)
}
