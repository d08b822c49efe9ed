// Package camsim is a stand-in for the thermal camera. It writes
// synthetic blocks in the same wire format the receiver reads, so the
// whole frame path can be run without hardware.
package camsim
