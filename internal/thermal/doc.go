// Package thermal converts raw sensor frames into false-color images.
//
// A frame is width*height big-endian uint16 samples. Decoding is three steps:
//
//  1. read the samples with an explicit byte order,
//  2. find min and max over the non-zero samples (zero means "no reading"),
//  3. map every sample through a perceptual gradient at
//     t = (sample-min) / max(1, max-min).
//
// An all-zero frame falls back to the full uint16 range, so degenerate input
// still produces a complete image.
package thermal
