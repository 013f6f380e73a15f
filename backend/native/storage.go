package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyBufferAlignment is the size granularity of buffer copies.
const copyBufferAlignment uint64 = 4

// Texture is the device storage of a framegraph texture.
type Texture struct {
	Texture hal.Texture
	View    hal.TextureView
	Width   uint32
	Height  uint32
	Format  gputypes.TextureFormat

	// external storage is owned by the caller, such as the acquired
	// surface texture of the window.
	external bool
}

// Storage implements framegraph.ResourceFactory on a HAL device. Buffers
// with a Buffered count get one copy per buffered frame.
//
// Storage is safe for concurrent use.
type Storage struct {
	mu       sync.RWMutex
	device   HALDevice
	buffers  map[framegraph.BufferID][]hal.Buffer
	textures map[framegraph.TextureID]*Texture
}

var _ framegraph.ResourceFactory = (*Storage)(nil)

// NewStorage creates an empty storage on device.
func NewStorage(device HALDevice) *Storage {
	return &Storage{
		device:   device,
		buffers:  make(map[framegraph.BufferID][]hal.Buffer),
		textures: make(map[framegraph.TextureID]*Texture),
	}
}

// CreateBuffer implements framegraph.ResourceFactory.
func (s *Storage) CreateBuffer(id framegraph.BufferID, info framegraph.BufferInfo) error {
	copies := max(info.Buffered, 1)
	size := (info.Size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)
	usage := info.Usage
	if usage == 0 {
		usage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	}

	bufs := make([]hal.Buffer, 0, copies)
	for i := range copies {
		b, err := s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("%s[%d]", info.Name, i),
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			for _, b := range bufs {
				s.device.DestroyBuffer(b)
			}
			return fmt.Errorf("create buffer %q: %w", info.Name, err)
		}
		bufs = append(bufs, b)
	}

	s.mu.Lock()
	s.buffers[id] = bufs
	s.mu.Unlock()
	return nil
}

// CreateTexture implements framegraph.ResourceFactory. The window texture
// gets no storage until BindWindow.
func (s *Storage) CreateTexture(id framegraph.TextureID, info framegraph.TextureInfo, width, height uint32) error {
	if info.Name == framegraph.WindowTexture {
		s.mu.Lock()
		s.textures[id] = &Texture{Width: width, Height: height, Format: info.Format, external: true}
		s.mu.Unlock()
		return nil
	}

	t, err := s.allocate(info, width, height)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.textures[id] = t
	s.mu.Unlock()
	return nil
}

func (s *Storage) allocate(info framegraph.TextureInfo, width, height uint32) (*Texture, error) {
	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label: info.Name,
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: max(info.Layers, 1),
		},
		MipLevelCount: max(info.Mips, 1),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        info.Format,
		Usage:         info.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", info.Name, err)
	}
	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: info.Name + " view",
	})
	if err != nil {
		s.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %q: %w", info.Name, err)
	}
	return &Texture{Texture: tex, View: view, Width: width, Height: height, Format: info.Format}, nil
}

// ResizeTexture implements framegraph.ResourceFactory by recreating the
// texture at the new size.
func (s *Storage) ResizeTexture(id framegraph.TextureID, info framegraph.TextureInfo, width, height uint32) error {
	s.mu.RLock()
	old := s.textures[id]
	s.mu.RUnlock()
	if old != nil && old.external {
		s.mu.Lock()
		old.Width, old.Height = width, height
		s.mu.Unlock()
		return nil
	}

	t, err := s.allocate(info, width, height)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.textures[id] = t
	s.mu.Unlock()
	if old != nil {
		s.release(old)
	}
	return nil
}

// DestroyBuffer implements framegraph.ResourceFactory.
func (s *Storage) DestroyBuffer(id framegraph.BufferID) {
	s.mu.Lock()
	bufs := s.buffers[id]
	delete(s.buffers, id)
	s.mu.Unlock()
	for _, b := range bufs {
		s.device.DestroyBuffer(b)
	}
}

// DestroyTexture implements framegraph.ResourceFactory.
func (s *Storage) DestroyTexture(id framegraph.TextureID) {
	s.mu.Lock()
	t := s.textures[id]
	delete(s.textures, id)
	s.mu.Unlock()
	if t != nil {
		s.release(t)
	}
}

func (s *Storage) release(t *Texture) {
	if t.external {
		return
	}
	if t.View != nil {
		s.device.DestroyTextureView(t.View)
	}
	if t.Texture != nil {
		s.device.DestroyTexture(t.Texture)
	}
}

// BindWindow attaches the texture acquired from the surface for the
// current frame to the window texture id.
func (s *Storage) BindWindow(id framegraph.TextureID, tex hal.Texture, view hal.TextureView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.textures[id]
	if t == nil {
		t = &Texture{external: true}
		s.textures[id] = t
	}
	t.Texture, t.View = tex, view
}

// Buffer returns the copy of id used by buffered frame bufferIndex.
func (s *Storage) Buffer(id framegraph.BufferID, bufferIndex int) (hal.Buffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bufs := s.buffers[id]
	if len(bufs) == 0 {
		return nil, false
	}
	return bufs[bufferIndex%len(bufs)], true
}

// Texture returns the storage of id. The window texture reports false
// until BindWindow.
func (s *Storage) Texture(id framegraph.TextureID) (*Texture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.textures[id]
	if t == nil || t.Texture == nil {
		return nil, false
	}
	return t, true
}

// Len returns the number of buffers and textures with storage entries.
func (s *Storage) Len() (buffers, textures int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buffers), len(s.textures)
}
