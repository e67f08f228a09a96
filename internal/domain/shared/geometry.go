package shared

// BBox is a rectangular region on a page, in pixel coordinates of the
// rendered page artifact.
type BBox struct {
	X      int `json:"x" bson:"x"`
	Y      int `json:"y" bson:"y"`
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// Empty reports whether the box has no area
func (b BBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}
