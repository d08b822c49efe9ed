// Package display puts decoded thermal images in front of a person.
//
// There are two drivers. Viewer is a full-screen Bubble Tea program that
// draws the newest frame with upper-half-block characters, two image rows
// per terminal row, in 24-bit color. SnapshotSurface writes frames to a
// PNG file scaled to a fixed window size, for headless machines.
//
// Both scale with golang.org/x/image/draw; bilinear interpolation is the
// default.
//
// Picker is the camera-side helper: it browses mDNS for receivers and lets
// the user pick one or type an address.
package display
