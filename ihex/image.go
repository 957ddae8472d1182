package ihex

// Image is a flat firmware image assembled from the records of a HEX file.
type Image struct {
	// Data holds the image bytes from address zero up to the highest
	// address any record wrote. Addresses no record covered read 0xFF.
	Data []byte

	// Records is the number of data records the image was built from.
	Records int
}

// Size returns the image length in bytes, one past the highest address
// written.
func (img *Image) Size() int {
	return len(img.Data)
}

// CopyTo copies the image into buf and returns the number of bytes copied.
// An image larger than buf is truncated to fit.
func (img *Image) CopyTo(buf []byte) int {
	return copy(buf, img.Data)
}

// grow extends the image to cover addresses up to end, filling fresh bytes
// with 0xFF.
func (img *Image) grow(end int) {
	for len(img.Data) < end {
		img.Data = append(img.Data, 0xFF)
	}
}
