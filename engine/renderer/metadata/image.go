package metadata

/**
 * @brief Decoded image, always 4 channels of 8 bits.
 */
type ImageData struct {
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief Tightly packed RGBA pixels, Width*Height*4 bytes. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
}
