package framegraph

import "fmt"

// Code is a leaf op wrapping an opaque callback. The compiler trusts the
// declared dependencies completely: Func must touch nothing else.
type Code struct {
	Op

	// Func issues the op's GPU commands. It must not be nil.
	Func RunFunc

	// Setup, when set, runs at build time if the op is built inside a
	// subpass, so it can create pipelines against that pass.
	Setup func(pass *Pass, subpass int)

	// Resized, when set, runs when the window is resized.
	Resized func(width, height int)
}

// Build implements Node.
func (c *Code) Build(ctx *BuildContext) {
	if c.skip() {
		return
	}
	if c.Func == nil {
		panic(fmt.Errorf("%w: code op %q", ErrNilCallback, c.Name))
	}
	if c.Setup != nil && ctx.pass != nil {
		c.Setup(ctx.pass, ctx.subpass)
	}
	self := ctx.emit(&c.Op, KindCode)
	self.run = c.Func
	ctx.resolve(&c.Op, self)
}

// OnWindowResized implements Node.
func (c *Code) OnWindowResized(r Resize) {
	if c.Resized != nil {
		c.Resized(r.Width, r.Height)
	}
}
