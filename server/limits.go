// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

// RequestLimits bounds every bounded response kind uniformly, per
// spec.md §3 ("applies uniformly to headers, bodies, receipts,
// node-data entries").
type RequestLimits struct {
	MaxItemsPerResponse uint16
}

// DefaultMaxItemsPerResponse is the configuration default named in
// spec.md §6.
const DefaultMaxItemsPerResponse = 192
