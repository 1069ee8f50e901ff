package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// MaxProductRefs caps the filtered references handed to the band loader:
// three bands' worth of attempts plus headroom for display.
const MaxProductRefs = 6

// preferredSubGroup is the calibration level tried first: flat-fielded
// exposures.
const preferredSubGroup = "FLT"

// ProductFilter narrows a product listing down to science-image FITS files
type ProductFilter struct {
	lister ProductLister
	logger *zap.Logger
}

// NewProductFilter creates a filter over the given product listing boundary
func NewProductFilter(lister ProductLister, logger *zap.Logger) *ProductFilter {
	return &ProductFilter{lister: lister, logger: logger}
}

// FilterProducts requests the product listing for the given dataset IDs and
// filters it to FITS images, preferring FLT-calibrated files and degrading to
// any FITS image when none match. It returns the bounded reference list, the
// full listing for display, and diagnostics. Transport faults degrade to an
// empty result.
func (f *ProductFilter) FilterProducts(ctx context.Context, ids []DatasetID) ([]ProductRef, []Product, []pipeline.Note) {
	var notes []pipeline.Note

	if len(ids) == 0 {
		return nil, nil, notes
	}

	products, err := f.lister.ProductList(ctx, ids)
	if err != nil {
		err = collabErr("product list", err)
		f.logger.Warn("product listing failed", zap.Int("datasets", len(ids)), zap.Error(err))
		return nil, nil, append(notes, pipeline.Errorf("product listing failed: %v", err))
	}

	matched := filterProducts(products, preferredSubGroup)
	if len(matched) == 0 {
		// No calibrated files; degrade to any FITS image
		matched = filterProducts(products, "")
	}

	if len(matched) == 0 {
		f.logger.Info("no fits products", zap.Int("products", len(products)))
		return nil, products, append(notes, pipeline.Warnf("no FITS image products found in the observations"))
	}

	refs := make([]ProductRef, 0, MaxProductRefs)
	for _, p := range matched {
		if len(refs) == MaxProductRefs {
			break
		}
		refs = append(refs, ProductRef{
			URI:         p.DataURI,
			Filename:    p.Filename,
			ProductType: "image",
			Extension:   "fits",
			CalibLevel:  p.SubGroup,
		})
	}

	f.logger.Info("filtered products",
		zap.Int("listed", len(products)),
		zap.Int("matched", len(matched)),
		zap.Int("refs", len(refs)))

	notes = append(notes, pipeline.Infof("found %d FITS files", len(matched)))
	return refs, products, notes
}

// filterProducts keeps science-image FITS rows; subGroup "" matches any
// calibration level
func filterProducts(products []Product, subGroup string) []Product {
	var out []Product
	for _, p := range products {
		if !isImage(p.ProductType) {
			continue
		}
		if p.Extension() != "fits" {
			continue
		}
		if subGroup != "" && p.SubGroup != subGroup {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isImage(productType string) bool {
	switch productType {
	case "image", "IMAGE", "SCIENCE":
		return true
	}
	return false
}
