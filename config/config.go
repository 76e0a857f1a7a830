// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the options named in spec.md §6 via pflag +
// viper, the teacher's own configuration stack (config/config.go binds
// a pflag.FlagSet into a viper.Viper and reads typed getters off it).
package config

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag keys, grouped the way the teacher's config.go names its *Key
// constants.
const (
	NetworkIDKey               = "network-id"
	MaxItemsPerResponseKey     = "max-items-per-response"
	DownloaderParallelismKey   = "downloader-parallelism"
	RequestTimeoutMsKey        = "request-timeout-ms"
	MaxRetriesKey              = "max-retries"
	FastSyncKey                = "fast-sync"
	IBFTEpochLengthKey         = "ibft-epoch-length"
	IBFTRequestTimeoutMsKey    = "ibft-request-timeout-ms"
	IBFTSpuriousDragonBlockKey = "ibft-spurious-dragon-block"
)

var errNetworkIDRequired = errors.New("config: network-id is required")

// IBFT groups the IBFT-legacy proposer's configuration.
type IBFT struct {
	EpochLength    uint64
	RequestTimeout time.Duration

	// SpuriousDragonBlock gates the gas-limit-bound validation rule
	// (ibftlegacy.SpuriousDragonActive); nil means active from block 0,
	// per SPEC_FULL.md §4.G.1.
	SpuriousDragonBlock *uint64
}

// Config holds every option named in spec.md §6.
type Config struct {
	NetworkID             uint64
	MaxItemsPerResponse   uint16
	DownloaderParallelism uint16
	RequestTimeout        time.Duration
	MaxRetries            uint16
	FastSync              bool
	IBFT                  IBFT
}

// Defaults returns the default values, the same ones BindFlags
// advertises; NetworkID has no default and must be set by the caller.
func Defaults() Config {
	return Config{
		MaxItemsPerResponse:   192,
		DownloaderParallelism: 4,
		RequestTimeout:        8000 * time.Millisecond,
		MaxRetries:            3,
		IBFT: IBFT{
			EpochLength:    30000,
			RequestTimeout: 10000 * time.Millisecond,
		},
	}
}

// BindFlags registers every config option onto fs, matching the
// teacher's pattern of a single flag set bound into viper by the
// caller (config.getViper in the teacher).
func BindFlags(fs *pflag.FlagSet) {
	fs.Uint64(NetworkIDKey, 0, "network id advertised in the STATUS handshake")
	fs.Uint16(MaxItemsPerResponseKey, 192, "max items returned per bounded response kind")
	fs.Uint16(DownloaderParallelismKey, 4, "number of concurrent header-download tasks")
	fs.Uint32(RequestTimeoutMsKey, 8000, "milliseconds to wait for a peer response before retrying")
	fs.Uint16(MaxRetriesKey, 3, "max header-download retries before MaxRetriesReached")
	fs.Bool(FastSyncKey, false, "enable fast sync (out of scope for this core; passed through)")
	fs.Uint64(IBFTEpochLengthKey, 30000, "IBFT-legacy epoch length in blocks")
	fs.Uint32(IBFTRequestTimeoutMsKey, 10000, "IBFT-legacy round request timeout in milliseconds")
	fs.Uint64(IBFTSpuriousDragonBlockKey, 0, "block number the IBFT-legacy gas-limit-bound rule activates at; unset means active from genesis")
}

// FromViper reads a bound viper.Viper into a Config, validating the
// one required field (network id).
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Defaults()

	if !v.IsSet(NetworkIDKey) {
		return Config{}, errNetworkIDRequired
	}
	cfg.NetworkID = v.GetUint64(NetworkIDKey)

	if v.IsSet(MaxItemsPerResponseKey) {
		cfg.MaxItemsPerResponse = uint16(v.GetUint32(MaxItemsPerResponseKey))
	}
	if v.IsSet(DownloaderParallelismKey) {
		cfg.DownloaderParallelism = uint16(v.GetUint32(DownloaderParallelismKey))
	}
	if v.IsSet(RequestTimeoutMsKey) {
		cfg.RequestTimeout = time.Duration(v.GetUint32(RequestTimeoutMsKey)) * time.Millisecond
	}
	if v.IsSet(MaxRetriesKey) {
		cfg.MaxRetries = uint16(v.GetUint32(MaxRetriesKey))
	}
	cfg.FastSync = v.GetBool(FastSyncKey)

	if v.IsSet(IBFTEpochLengthKey) {
		cfg.IBFT.EpochLength = v.GetUint64(IBFTEpochLengthKey)
	}
	if v.IsSet(IBFTRequestTimeoutMsKey) {
		cfg.IBFT.RequestTimeout = time.Duration(v.GetUint32(IBFTRequestTimeoutMsKey)) * time.Millisecond
	}
	if v.IsSet(IBFTSpuriousDragonBlockKey) {
		block := v.GetUint64(IBFTSpuriousDragonBlockKey)
		cfg.IBFT.SpuriousDragonBlock = &block
	}

	return cfg, nil
}

// Load builds a viper.Viper bound to fs and parses it into a Config.
// fs should already have had Parse called (e.g. by pflag.Parse or a
// cobra command) before Load is called.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}
	return FromViper(v)
}
