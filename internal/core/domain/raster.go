package domain

import "image"

// Raster is a decoded document or live photo. TextLayer carries text embedded
// in the source file (an e-document PDF text layer); when non-empty the
// pipeline can skip the OCR engine for this asset.
type Raster struct {
	Image     image.Image
	TextLayer string
}
