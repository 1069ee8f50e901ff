// Package catalog models the external astronomy catalog boundary: observation
// lookup, product listing and the filtering that narrows products down to
// science-image FITS files.
package catalog

import (
	"context"
	"strings"
)

// DatasetID is an opaque handle for one observation in the external catalog
type DatasetID string

// Coord is a celestial position in decimal degrees
type Coord struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// Observation is one row extracted from a catalog query. Only the fields the
// pipeline depends on are mapped; the wire format is owned by the service.
type Observation struct {
	ObsID      DatasetID `json:"obsid"`
	Target     string    `json:"target_name"`
	Collection string    `json:"obs_collection"`
	RA         float64   `json:"s_ra"`
	Dec        float64   `json:"s_dec"`
}

// Product is one row of the product listing for an observation
type Product struct {
	ObsID       string `json:"obsID"`
	Description string `json:"description"`
	ProductType string `json:"productType"`
	SubGroup    string `json:"productSubGroupDescription"`
	Filename    string `json:"productFilename"`
	DataURI     string `json:"dataURI"`
	CalibLevel  int    `json:"calib_level"`
	Size        int64  `json:"size"`
}

// Extension returns the lower-cased file extension of the product, without
// the leading dot ("fits" for both x.fits and x.fits.gz)
func (p Product) Extension() string {
	name := strings.ToLower(p.Filename)
	name = strings.TrimSuffix(name, ".gz")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// ProductRef is a downloadable science-image reference handed to the band
// loader. Invariant: ProductType is "image" and Extension is "fits".
type ProductRef struct {
	URI         string `json:"uri"`
	Filename    string `json:"filename"`
	ProductType string `json:"product_type"`
	Extension   string `json:"extension"`
	CalibLevel  string `json:"calibration_level,omitempty"`
}

// ObjectQuerier queries the catalog by object name
type ObjectQuerier interface {
	QueryObject(ctx context.Context, name string, radiusDeg float64) ([]Observation, error)
}

// RegionQuerier queries the catalog by coordinate cone
type RegionQuerier interface {
	QueryRegion(ctx context.Context, coord Coord, radiusDeg float64) ([]Observation, error)
}

// NameResolver resolves an object name to celestial coordinates
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (Coord, error)
}

// ProductLister lists the downloadable products for a set of dataset IDs
type ProductLister interface {
	ProductList(ctx context.Context, ids []DatasetID) ([]Product, error)
}
