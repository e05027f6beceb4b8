package domain

import (
	"fmt"
	"strconv"
)

// Spatial summary attribute names written on coregistered datasets.
const (
	AttrLatMin        = "geospatial_lat_min"
	AttrLatMax        = "geospatial_lat_max"
	AttrLatResolution = "geospatial_lat_resolution"
	AttrLatUnits      = "geospatial_lat_units"
	AttrLonMin        = "geospatial_lon_min"
	AttrLonMax        = "geospatial_lon_max"
	AttrLonResolution = "geospatial_lon_resolution"
	AttrLonUnits      = "geospatial_lon_units"
	AttrBounds        = "geospatial_bounds"
	AttrBoundsCRS     = "geospatial_bounds_crs"
)

// AdjustSpatialAttrs recomputes the extent and resolution attributes of ds
// from its lat/lon coordinates. Axes with fewer than two values are skipped.
func AdjustSpatialAttrs(ds *Dataset) {
	if ds.Attrs == nil {
		ds.Attrs = Attrs{}
	}

	lat, latOK := pixelExtent(ds.Axis(DimLat))
	lon, lonOK := pixelExtent(ds.Axis(DimLon))

	if latOK {
		ds.Attrs[AttrLatMin] = lat.Min
		ds.Attrs[AttrLatMax] = lat.Max
		ds.Attrs[AttrLatResolution] = PixelSize(ds.Axis(DimLat))
		ds.Attrs[AttrLatUnits] = "degrees_north"
	}
	if lonOK {
		ds.Attrs[AttrLonMin] = lon.Min
		ds.Attrs[AttrLonMax] = lon.Max
		ds.Attrs[AttrLonResolution] = PixelSize(ds.Axis(DimLon))
		ds.Attrs[AttrLonUnits] = "degrees_east"
	}
	if latOK && lonOK {
		ds.Attrs[AttrBounds] = wktPolygon(lat, lon)
		ds.Attrs[AttrBoundsCRS] = "EPSG:4326"
	}
}

// pixelExtent returns the pixel-edge extent of a pixel-registered axis.
func pixelExtent(axis []float64) (Bounds, bool) {
	if len(axis) < 2 {
		return Bounds{}, false
	}
	half := PixelSize(axis) / 2
	lo, hi := axis[0], axis[len(axis)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return Bounds{Min: lo - half, Max: hi + half}, true
}

func wktPolygon(lat, lon Bounds) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("POLYGON((%s %s, %s %s, %s %s, %s %s, %s %s))",
		f(lon.Min), f(lat.Min),
		f(lon.Min), f(lat.Max),
		f(lon.Max), f(lat.Max),
		f(lon.Max), f(lat.Min),
		f(lon.Min), f(lat.Min))
}
