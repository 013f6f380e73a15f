package native

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// HALDevice is the part of hal.Device the backend uses. Any hal.Device
// satisfies it.
type HALDevice interface {
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error)
	DestroyTextureView(view hal.TextureView)
	CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error)
	DestroyShaderModule(module hal.ShaderModule)
	CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error)
}

// Device bundles the storage, event allocator and shader cache backing
// frame programs on one HAL device.
type Device struct {
	hal     HALDevice
	queue   hal.Queue
	format  gputypes.TextureFormat
	storage *Storage
	events  *Events
	shaders *ShaderCache
	blitter Blitter
}

// halProvider is implemented by providers that share their HAL objects,
// such as the gogpu application context.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewDevice creates a device sharing the HAL device and queue of provider.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewDevice(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(HALDevice)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, _ := hp.HalQueue().(hal.Queue)
	d := NewDeviceHAL(device, queue)
	d.format = provider.SurfaceFormat()
	return d, nil
}

// NewDeviceHAL creates a device over explicit HAL objects. queue may be
// nil when the caller submits command buffers itself.
func NewDeviceHAL(device HALDevice, queue hal.Queue) *Device {
	return &Device{
		hal:     device,
		queue:   queue,
		format:  gputypes.TextureFormatBGRA8Unorm,
		storage: NewStorage(device),
		events:  NewEvents(),
		shaders: NewShaderCache(device, 0),
	}
}

// Storage returns the resource factory to pass to framegraph.NewResources.
func (d *Device) Storage() *Storage { return d.storage }

// Events returns the event allocator to pass in framegraph.ScriptOptions.
func (d *Device) Events() *Events { return d.events }

// Shaders returns the shader module cache.
func (d *Device) Shaders() *ShaderCache { return d.shaders }

// SetBlitter sets the blitter handed to every encoded frame.
func (d *Device) SetBlitter(b Blitter) { d.blitter = b }

// Queue returns the HAL queue, or nil.
func (d *Device) Queue() hal.Queue { return d.queue }

// SurfaceFormat returns the window texture format.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.format }

// Encode records one frame of p into a new HAL command buffer. A compiled
// program that fails to replay discards the encoding and returns the first
// recording error.
func (d *Device) Encode(p *framegraph.Program, frame, bufferIndex int) (hal.CommandBuffer, error) {
	label := fmt.Sprintf("%s frame %d", p.Name(), frame)
	enc, err := d.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	cb := NewCommandBuffer(WrapEncoder(enc), d.storage, d.events, bufferIndex)
	cb.SetBlitter(d.blitter)
	p.Run(framegraph.SingleQueue(cb), frame, bufferIndex)
	if err := cb.Err(); err != nil {
		enc.DiscardEncoding()
		return nil, fmt.Errorf("replay %s: %w", p.Name(), err)
	}

	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	s := cb.Stats()
	framegraph.Logger().Debug("native: frame encoded",
		"program", p.Name(), "frame", frame,
		"transitions", s.Transitions, "passes", s.Passes, "copies", s.Copies)
	return cmdBuf, nil
}

// Destroy releases the cached shader modules. Resource storage is released
// through framegraph.Resources.Destroy.
func (d *Device) Destroy() {
	d.shaders.Clear()
}
