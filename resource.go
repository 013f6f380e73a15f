package framegraph

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
)

// BufferID is an opaque handle to a buffer declared in a Resources table.
// Handles are stable for the lifetime of the table, across resizes.
type BufferID uint64

// TextureID is an opaque handle to a texture declared in a Resources table.
type TextureID uint64

// InvalidID is the zero handle. No resource is ever assigned it.
const InvalidID = 0

// WindowTexture is the name of the backbuffer texture every table declares.
const WindowTexture = "__WINDOW__"

// BufferInfo describes a buffer.
type BufferInfo struct {
	Name  string
	Size  uint64
	Usage gputypes.BufferUsage

	// Buffered is the number of parallel copies the device keeps, one per
	// buffered frame. Zero means a single copy.
	Buffered int
}

// TextureInfo describes a texture. When Relative is set, Width and Height
// are fractions of the window size; otherwise they are pixels.
type TextureInfo struct {
	Name     string
	Format   gputypes.TextureFormat
	Width    float32
	Height   float32
	Relative bool
	Layers   uint32
	Mips     uint32
	Usage    gputypes.TextureUsage

	// InitialUsage is the usage the texture is created in. When non-zero
	// and different from the usage of the first access in a build, a
	// transition is recorded before that access.
	InitialUsage gputypes.TextureUsage
}

// Extent resolves the texture size in pixels for a window size.
func (t TextureInfo) Extent(windowWidth, windowHeight int) (width, height uint32) {
	if !t.Relative {
		return pixels(float64(t.Width)), pixels(float64(t.Height))
	}
	return pixels(float64(t.Width) * float64(windowWidth)),
		pixels(float64(t.Height) * float64(windowHeight))
}

func pixels(v float64) uint32 {
	if v < 1 {
		return 1
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// ResourceFactory is the device-layer capability that creates the backing
// storage for declared resources. It is keyed by the table's handles so
// resizing recreates storage without changing the handle.
type ResourceFactory interface {
	CreateBuffer(id BufferID, info BufferInfo) error
	CreateTexture(id TextureID, info TextureInfo, width, height uint32) error
	ResizeTexture(id TextureID, info TextureInfo, width, height uint32) error
	DestroyBuffer(id BufferID)
	DestroyTexture(id TextureID)
}

type textureEntry struct {
	info          TextureInfo
	width, height uint32
}

// Resources is the resource table of a frame script. It owns handle
// allocation, name lookup and window-relative sizing.
type Resources struct {
	mu       sync.RWMutex
	factory  ResourceFactory
	buffers  []BufferInfo
	textures []textureEntry
	byName   map[string]uint64
	width    int
	height   int
	window   TextureID
}

// NewResources creates a table for a window of the given size. The factory
// may be nil, in which case only bookkeeping is performed.
func NewResources(factory ResourceFactory, width, height int, windowFormat gputypes.TextureFormat) (*Resources, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: window %dx%d", ErrInvalidDimensions, width, height)
	}
	r := &Resources{
		factory: factory,
		byName:  make(map[string]uint64),
		width:   width,
		height:  height,
	}
	id, err := r.AddTexture(TextureInfo{
		Name:     WindowTexture,
		Format:   windowFormat,
		Width:    1,
		Height:   1,
		Relative: true,
		Layers:   1,
		Mips:     1,
		Usage:    gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	r.window = id
	return r, nil
}

// Window returns the handle of the backbuffer texture.
func (r *Resources) Window() TextureID { return r.window }

// WindowSize returns the current window size.
func (r *Resources) WindowSize() (width, height int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.width, r.height
}

// AddBuffer declares a buffer and creates its storage.
func (r *Resources) AddBuffer(info BufferInfo) (BufferID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[info.Name]; dup && info.Name != "" {
		return InvalidID, fmt.Errorf("%w: buffer %q", ErrDuplicateResource, info.Name)
	}
	if info.Buffered <= 0 {
		info.Buffered = 1
	}
	r.buffers = append(r.buffers, info)
	id := BufferID(len(r.buffers))
	if r.factory != nil {
		if err := r.factory.CreateBuffer(id, info); err != nil {
			r.buffers = r.buffers[:len(r.buffers)-1]
			return InvalidID, fmt.Errorf("create buffer %q: %w", info.Name, err)
		}
	}
	if info.Name != "" {
		r.byName[info.Name] = bufferKey(id)
	}
	return id, nil
}

// AddTexture declares a texture and creates its storage.
func (r *Resources) AddTexture(info TextureInfo) (TextureID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[info.Name]; dup && info.Name != "" {
		return InvalidID, fmt.Errorf("%w: texture %q", ErrDuplicateResource, info.Name)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return InvalidID, fmt.Errorf("%w: texture %q %gx%g", ErrInvalidDimensions, info.Name, info.Width, info.Height)
	}
	if info.Layers == 0 {
		info.Layers = 1
	}
	if info.Mips == 0 {
		info.Mips = 1
	}
	w, h := info.Extent(r.width, r.height)
	r.textures = append(r.textures, textureEntry{info: info, width: w, height: h})
	id := TextureID(len(r.textures))
	if r.factory != nil {
		if err := r.factory.CreateTexture(id, info, w, h); err != nil {
			r.textures = r.textures[:len(r.textures)-1]
			return InvalidID, fmt.Errorf("create texture %q: %w", info.Name, err)
		}
	}
	if info.Name != "" {
		r.byName[info.Name] = textureKey(id)
	}
	return id, nil
}

// Buffer returns the description of a buffer.
func (r *Resources) Buffer(id BufferID) (BufferInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == InvalidID || int(id) > len(r.buffers) {
		return BufferInfo{}, false
	}
	return r.buffers[id-1], true
}

// Texture returns the description of a texture.
func (r *Resources) Texture(id TextureID) (TextureInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == InvalidID || int(id) > len(r.textures) {
		return TextureInfo{}, false
	}
	return r.textures[id-1].info, true
}

// TextureSize returns the current pixel size of a texture.
func (r *Resources) TextureSize(id TextureID) (width, height uint32, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == InvalidID || int(id) > len(r.textures) {
		return 0, 0, false
	}
	e := r.textures[id-1]
	return e.width, e.height, true
}

// LookupBuffer resolves a buffer by name.
func (r *Resources) LookupBuffer(name string) (BufferID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byName[name]
	if !ok || k&textureBit != 0 {
		return InvalidID, false
	}
	return BufferID(k), true
}

// LookupTexture resolves a texture by name.
func (r *Resources) LookupTexture(name string) (TextureID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byName[name]
	if !ok || k&textureBit == 0 {
		return InvalidID, false
	}
	return TextureID(k &^ textureBit), true
}

// Len returns the number of declared buffers and textures.
func (r *Resources) Len() (buffers, textures int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buffers), len(r.textures)
}

// Resize updates the window size and recreates every window-relative
// texture at its new extent. Handles do not change. If the factory fails,
// textures already resized are restored and the window keeps its old size.
func (r *Resources) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: window %dx%d", ErrInvalidDimensions, width, height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	type resized struct {
		index         int
		width, height uint32
	}
	var done []resized
	for i := range r.textures {
		e := &r.textures[i]
		if !e.info.Relative {
			continue
		}
		w, h := e.info.Extent(width, height)
		if w == e.width && h == e.height {
			continue
		}
		if r.factory != nil {
			if err := r.factory.ResizeTexture(TextureID(i+1), e.info, w, h); err != nil {
				for _, d := range done {
					r.restore(d.index, d.width, d.height)
				}
				return fmt.Errorf("resize texture %q: %w", e.info.Name, err)
			}
		}
		done = append(done, resized{index: i, width: e.width, height: e.height})
		e.width, e.height = w, h
	}
	r.width, r.height = width, height
	return nil
}

// restore puts texture i back at its previous extent after a failed resize.
func (r *Resources) restore(i int, width, height uint32) {
	e := &r.textures[i]
	if err := r.factory.ResizeTexture(TextureID(i+1), e.info, width, height); err != nil {
		Logger().Warn("framegraph: texture restore failed", "texture", e.info.Name, "error", err)
		return
	}
	e.width, e.height = width, height
}

// Destroy releases the storage of every resource.
func (r *Resources) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factory != nil {
		for i := range r.buffers {
			r.factory.DestroyBuffer(BufferID(i + 1))
		}
		for i := range r.textures {
			r.factory.DestroyTexture(TextureID(i + 1))
		}
	}
	r.buffers = nil
	r.textures = nil
	clear(r.byName)
}

// label returns a printable name for a tracked resource.
func (r *Resources) label(k resourceKey) string {
	if r != nil {
		if k.texture {
			if info, ok := r.Texture(TextureID(k.id)); ok && info.Name != "" {
				return info.Name
			}
		} else if info, ok := r.Buffer(BufferID(k.id)); ok && info.Name != "" {
			return info.Name
		}
	}
	return k.String()
}

const textureBit = uint64(1) << 63

func bufferKey(id BufferID) uint64   { return uint64(id) }
func textureKey(id TextureID) uint64 { return uint64(id) | textureBit }
