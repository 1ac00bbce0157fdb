// Package kma holds the KMA (Korea Meteorological Administration) grid
// projection and base-time selection used by the forecast service.
package kma

import (
	"math"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

// Lambert conformal conic parameters of the KMA 5 km grid. These must not change:
// the provider addresses its data by the cells they produce.
const (
	earthRadiusKm = 6371.00877
	gridSpacingKm = 5.0
	standardLat1  = 30.0
	standardLat2  = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43.0
	originY       = 136.0
)

const degToRad = math.Pi / 180.0

// Project converts a coordinate to its KMA grid cell.
func Project(lat, lon float64) models.GridCell {
	re := earthRadiusKm / gridSpacingKm
	slat1 := standardLat1 * degToRad
	slat2 := standardLat2 * degToRad
	olon := originLon * degToRad
	olat := originLat * degToRad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)
	sf := math.Tan(math.Pi*0.25 + slat1*0.5)
	sf = math.Pow(sf, sn) * math.Cos(slat1) / sn
	ro := math.Tan(math.Pi*0.25 + olat*0.5)
	ro = re * sf / math.Pow(ro, sn)

	ra := math.Tan(math.Pi*0.25 + lat*degToRad*0.5)
	ra = re * sf / math.Pow(ra, sn)
	theta := lon*degToRad - olon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= sn

	x := ra*math.Sin(theta) + originX
	y := ro - ra*math.Cos(theta) + originY

	// +1.5 then truncate, as the provider's reference implementation does.
	return models.GridCell{X: int(x + 1.5), Y: int(y + 1.5)}
}

// ProjectCoordinate is Project for a models.GeoCoordinate.
func ProjectCoordinate(c models.GeoCoordinate) models.GridCell {
	return Project(c.Latitude, c.Longitude)
}
