// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"context"
	"fmt"
	"time"
)

// Transfer phases reported through Progress.Phase
const (
	PhaseReading   = "reading"
	PhaseWriting   = "writing"
	PhaseVerifying = "verifying"
	PhaseComplete  = "complete"
)

// Progress describes how far an image transfer has come
type Progress struct {
	Phase       string
	Address     Address // start of the chunk just transferred
	Done        int     // bytes transferred so far
	Total       int
	Percentage  float64
	ElapsedTime time.Duration
}

// ProgressCallback is called after every chunk. It should return quickly.
type ProgressCallback func(Progress)

// TransferConfig holds image transfer settings
type TransferConfig struct {
	// ProgressCallback is called after every chunk (optional)
	ProgressCallback ProgressCallback
	// ChunkSize is the number of bytes per memory command
	ChunkSize int
}

// TransferOption configures an image transfer
type TransferOption func(*TransferConfig)

func defaultTransferConfig() TransferConfig {
	return TransferConfig{
		ChunkSize: MaxTransferSize,
	}
}

// WithChunkSize sets the number of bytes per memory command. Values outside
// 1..MaxTransferSize are ignored.
func WithChunkSize(size int) TransferOption {
	return func(c *TransferConfig) {
		if size > 0 && size <= MaxTransferSize {
			c.ChunkSize = size
		}
	}
}

// WithProgress sets a callback for transfer progress
func WithProgress(callback ProgressCallback) TransferOption {
	return func(c *TransferConfig) {
		c.ProgressCallback = callback
	}
}

func applyTransferOptions(opts []TransferOption) TransferConfig {
	cfg := defaultTransferConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ReadImage reads size bytes starting at addr, split into chunks that fit
// the 16-bit count field.
func ReadImage(ctx context.Context, e *Engine, addr Address, size int, opts ...TransferOption) ([]byte, error) {
	if err := ValidateRange(uint64(addr), uint64(size)); err != nil {
		return nil, err
	}
	cfg := applyTransferOptions(opts)

	image := make([]byte, 0, size)
	err := forEachChunk(ctx, addr, size, cfg, PhaseReading, func(chunkAddr Address, offset, n int) error {
		data, err := e.ReadMemory(chunkAddr, uint16(n))
		if err != nil {
			return err
		}
		image = append(image, data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return image, nil
}

// WriteImage writes image starting at addr in chunks. On failure the
// target holds every chunk written before the error.
func WriteImage(ctx context.Context, e *Engine, addr Address, image []byte, opts ...TransferOption) error {
	if err := ValidateRange(uint64(addr), uint64(len(image))); err != nil {
		return err
	}
	cfg := applyTransferOptions(opts)

	return forEachChunk(ctx, addr, len(image), cfg, PhaseWriting, func(chunkAddr Address, offset, n int) error {
		return e.WriteMemory(chunkAddr, image[offset:offset+n])
	})
}

// VerifyImage reads back len(image) bytes from addr and compares them with
// image. The first differing byte is reported as a *VerificationError.
func VerifyImage(ctx context.Context, e *Engine, addr Address, image []byte, opts ...TransferOption) error {
	if err := ValidateRange(uint64(addr), uint64(len(image))); err != nil {
		return err
	}
	cfg := applyTransferOptions(opts)

	return forEachChunk(ctx, addr, len(image), cfg, PhaseVerifying, func(chunkAddr Address, offset, n int) error {
		data, err := e.ReadMemory(chunkAddr, uint16(n))
		if err != nil {
			return err
		}
		for i, b := range data {
			if want := image[offset+i]; b != want {
				return &VerificationError{
					Address:  chunkAddr.Add(i),
					Offset:   offset + i,
					Expected: want,
					Actual:   b,
				}
			}
		}
		return nil
	})
}

// forEachChunk splits [addr, addr+size) into chunks and calls fn for each,
// checking ctx between chunks and reporting progress.
func forEachChunk(ctx context.Context, addr Address, size int, cfg TransferConfig, phase string,
	fn func(chunkAddr Address, offset, n int) error) error {
	start := time.Now()

	for offset := 0; offset < size; offset += cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		n := min(cfg.ChunkSize, size-offset)
		chunkAddr := addr.Add(offset)
		if err := fn(chunkAddr, offset, n); err != nil {
			return fmt.Errorf("%s %s (+%d bytes): %w", phase, chunkAddr, n, err)
		}

		reportProgress(cfg, Progress{
			Phase:       phase,
			Address:     chunkAddr,
			Done:        offset + n,
			Total:       size,
			Percentage:  float64(offset+n) * 100 / float64(size),
			ElapsedTime: time.Since(start),
		})
	}

	reportProgress(cfg, Progress{
		Phase:       PhaseComplete,
		Address:     addr,
		Done:        size,
		Total:       size,
		Percentage:  100,
		ElapsedTime: time.Since(start),
	})
	return nil
}

func reportProgress(cfg TransferConfig, p Progress) {
	if cfg.ProgressCallback != nil {
		cfg.ProgressCallback(p)
	}
}
