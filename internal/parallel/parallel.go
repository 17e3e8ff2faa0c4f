// Package parallel splits element-wise kernels across goroutines.
//
// Every chunk writes a disjoint index range, so results are identical to
// the sequential path regardless of the worker count.
package parallel

import (
	"runtime"
	"strconv"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum elements per goroutine.
}

// DefaultConfig sizes the pool from the physical core count reported by
// cpuid, falling back to runtime.NumCPU when it is unknown.
func DefaultConfig() Config {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096,
	}
}

// WithWorkers returns DefaultConfig for n <= 0, Sequential for n == 1 and
// otherwise a config fanning out over n goroutines.
func WithWorkers(n int) Config {
	switch {
	case n <= 0:
		return DefaultConfig()
	case n == 1:
		return Sequential()
	}
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = n
	return cfg
}

// Sequential runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// Range calls f(lo, hi) over consecutive sub-ranges covering [0, n).
// Falls back to a single f(0, n) call when parallelism is disabled or n
// is below two chunks.
func Range(n int, f func(lo, hi int), cfg Config) {
	if n <= 0 {
		return
	}
	workers := max(cfg.NumWorkers, 1)
	if !cfg.Enabled || workers == 1 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunk := max((n+workers-1)/workers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// Map writes fn(src[i]) to dst[i] for every i. dst and src may alias.
func Map(dst, src []float64, fn func(float64) float64, cfg Config) {
	Range(len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = fn(src[i])
		}
	}, cfg)
}

// Map2 writes fn(a[i], b[i]) to dst[i] for every i.
func Map2(dst, a, b []float64, fn func(x, y float64) float64, cfg Config) {
	Range(len(a), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = fn(a[i], b[i])
		}
	}, cfg)
}

// HostInfo describes the CPU the process runs on.
func HostInfo() map[string]string {
	return map[string]string{
		"cpu_brand":      cpuid.CPU.BrandName,
		"cpu_vendor":     cpuid.CPU.VendorString,
		"physical_cores": strconv.Itoa(cpuid.CPU.PhysicalCores),
		"logical_cores":  strconv.Itoa(cpuid.CPU.LogicalCores),
		"avx2":           strconv.FormatBool(cpuid.CPU.Supports(cpuid.AVX2)),
		"goarch":         runtime.GOARCH,
	}
}
