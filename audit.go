package framegraph

import (
	"fmt"
	"sync"
)

// Toucher is implemented by command buffers that can observe resource
// touches. Code callbacks report the resources they access through
// TouchBuffer and TouchTexture so that an Audit can check them.
type Toucher interface {
	TouchBuffer(id BufferID, access Access)
	TouchTexture(id TextureID, access Access)
}

// TouchBuffer reports a buffer access to cmd when it audits touches.
func TouchBuffer(cmd CommandBuffer, id BufferID, access Access) {
	if t, ok := cmd.(Toucher); ok {
		t.TouchBuffer(id, access)
	}
}

// TouchTexture reports a texture access to cmd when it audits touches.
func TouchTexture(cmd CommandBuffer, id TextureID, access Access) {
	if t, ok := cmd.(Toucher); ok {
		t.TouchTexture(id, access)
	}
}

// Violation is a resource touch that no enclosing op declared.
type Violation struct {
	Op       string
	Resource string
	Access   Access
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: undeclared %s of %s", v.Op, v.Access, v.Resource)
}

// Audit wraps a set of command buffers and checks, during replay, that
// every resource touched by an op was declared by it or by an op
// enclosing it. Blits, copies and pass attachments are checked
// automatically; code callbacks opt in through TouchBuffer and
// TouchTexture. Audit is a debugging aid: it adds a lookup per touch.
type Audit struct {
	inner     Queues
	resources *Resources
	wrapped   [queueCount]*auditBuffer

	mu         sync.Mutex
	stack      []*Compiled
	violations []Violation
}

// NewAudit wraps q. The resource table is only used to name resources in
// violations and may be nil.
func NewAudit(q Queues, res *Resources) *Audit {
	a := &Audit{inner: q, resources: res}
	for i := range a.wrapped {
		a.wrapped[i] = &auditBuffer{CommandBuffer: q.Queue(Queue(i)), audit: a} // #nosec G115 -- i < queueCount
	}
	return a
}

// Queue implements Queues.
func (a *Audit) Queue(q Queue) CommandBuffer { return a.wrapped[q] }

// Violations returns the violations recorded so far.
func (a *Audit) Violations() []Violation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Violation(nil), a.violations...)
}

// Reset clears recorded violations.
func (a *Audit) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.violations = nil
}

func (a *Audit) enterOp(c *Compiled) {
	a.mu.Lock()
	a.stack = append(a.stack, c)
	a.mu.Unlock()
}

func (a *Audit) leaveOp(*Compiled) {
	a.mu.Lock()
	a.stack = a.stack[:len(a.stack)-1]
	a.mu.Unlock()
}

func (a *Audit) touch(k resourceKey, access Access) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.stack) == 0 {
		return
	}
	for i := len(a.stack) - 1; i >= 0; i-- {
		if declares(a.stack[i], k, access) {
			return
		}
	}
	v := Violation{Op: a.stack[len(a.stack)-1].Name, Resource: a.resources.label(k), Access: access}
	a.violations = append(a.violations, v)
	Logger().Warn("framegraph: undeclared resource access", "op", v.Op, "resource", v.Resource, "access", v.Access)
}

// declares reports whether c declared k with an access at least as strong.
func declares(c *Compiled, k resourceKey, access Access) bool {
	if k.texture {
		for _, d := range c.TextureDeps {
			if uint64(d.Texture) == k.id && (d.Access == AccessWrite || access == AccessRead) {
				return true
			}
		}
		return false
	}
	for _, d := range c.BufferDeps {
		if uint64(d.Buffer) == k.id && (d.Access == AccessWrite || access == AccessRead) {
			return true
		}
	}
	return false
}

// auditBuffer forwards to the wrapped command buffer and reports the
// touches implied by the commands it sees.
type auditBuffer struct {
	CommandBuffer
	audit *Audit
}

// Unwrap returns the audited command buffer, so callbacks can reach
// backend specific methods through the audit.
func (b *auditBuffer) Unwrap() CommandBuffer { return b.CommandBuffer }

func (b *auditBuffer) TouchBuffer(id BufferID, access Access) {
	b.audit.touch(resourceKey{id: uint64(id)}, access)
	TouchBuffer(b.CommandBuffer, id, access)
}

func (b *auditBuffer) TouchTexture(id TextureID, access Access) {
	b.audit.touch(resourceKey{texture: true, id: uint64(id)}, access)
	TouchTexture(b.CommandBuffer, id, access)
}

func (b *auditBuffer) BeginPass(p *PassInfo) {
	for _, att := range p.Attachments {
		b.TouchTexture(att.Texture, AccessWrite)
	}
	if p.Depth != nil {
		access := AccessWrite
		if p.Depth.ReadOnly {
			access = AccessRead
		}
		b.TouchTexture(p.Depth.Texture, access)
	}
	b.CommandBuffer.BeginPass(p)
}

func (b *auditBuffer) Blit(info *BlitInfo) {
	b.TouchTexture(info.From, AccessRead)
	b.TouchTexture(info.To, AccessWrite)
	b.CommandBuffer.Blit(info)
}

func (b *auditBuffer) CopyBuffer(info *CopyInfo) {
	b.TouchBuffer(info.From, AccessRead)
	b.TouchBuffer(info.To, AccessWrite)
	b.CommandBuffer.CopyBuffer(info)
}
