//go:build !xilowmem
// +build !xilowmem

package model

// Wire limits. These are hard caps checked on encode and decode,
// build with -tags xilowmem for constrained targets.
const (
	MaxContentSize    = 4096 // request and response buffer
	MaxHeaderName     = 32
	MaxHeaderValue    = 64
	MaxHeaders        = 16
	MaxStatusReason   = 32
	MaxDatastreamName = 32
	MaxValueString    = 32
	MaxDatapoints     = 16
	MaxDatastreams    = 16
)
