package native

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/internal/cache"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// defaultShaderCapacity bounds the shader cache when no capacity is given.
const defaultShaderCapacity = 64

// ShaderCache compiles WGSL with naga and keeps the resulting shader
// modules keyed by source hash. Evicted modules are destroyed on the
// device.
//
// ShaderCache is safe for concurrent use.
type ShaderCache struct {
	device  HALDevice
	modules *cache.LRU[uint64, hal.ShaderModule]
}

// NewShaderCache creates a cache of at most capacity modules. Zero
// selects the default capacity.
func NewShaderCache(device HALDevice, capacity int) *ShaderCache {
	if capacity <= 0 {
		capacity = defaultShaderCapacity
	}
	return &ShaderCache{
		device: device,
		modules: cache.New(capacity, func(_ uint64, m hal.ShaderModule) {
			device.DestroyShaderModule(m)
		}),
	}
}

// Module returns the shader module for wgsl, compiling it on first use.
func (c *ShaderCache) Module(label, wgsl string) (hal.ShaderModule, error) {
	return c.modules.GetOrLoad(sourceKey(wgsl), func() (hal.ShaderModule, error) {
		spirv, err := CompileSPIRV(wgsl)
		if err != nil {
			return nil, fmt.Errorf("compile shader %q: %w", label, err)
		}
		m, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label,
			Source: hal.ShaderSource{SPIRV: spirv},
		})
		if err != nil {
			return nil, fmt.Errorf("create shader module %q: %w", label, err)
		}
		framegraph.Logger().Debug("native: shader compiled", "label", label, "words", len(spirv))
		return m, nil
	})
}

// Stats returns the cache statistics.
func (c *ShaderCache) Stats() cache.Stats { return c.modules.Stats() }

// Clear destroys every cached module.
func (c *ShaderCache) Clear() { c.modules.Clear() }

// CompileSPIRV compiles WGSL source to little-endian SPIR-V words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

func sourceKey(wgsl string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(wgsl))
	return h.Sum64()
}
