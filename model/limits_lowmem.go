//go:build xilowmem
// +build xilowmem

package model

const (
	MaxContentSize    = 512
	MaxHeaderName     = 24
	MaxHeaderValue    = 40
	MaxHeaders        = 8
	MaxStatusReason   = 24
	MaxDatastreamName = 16
	MaxValueString    = 16
	MaxDatapoints     = 4
	MaxDatastreams    = 4
)
