// Package script loads frame scripts written in HCL.
//
// A frame script declares the resources of a frame and its ops in source
// order. Resources are created before any op is built, so an op may name
// a resource declared further down. The special __WINDOW__ texture is
// always present and tracks the window size.
//
//	texture "HDR" {
//	  format   = "rgba16float"
//	  relative = true
//	  width    = 1
//	  height   = 1
//	}
//
//	buffer "Lights" {
//	  size  = var.lights * 32
//	  usage = ["storage"]
//	}
//
//	code "Cull" {
//	  func  = "cull"
//	  queue = "compute"
//	  write "Lights" { stage = "compute_shader" }
//	}
//
//	pass "Forward" {
//	  attachment "HDR" { clear = [0, 0, 0, 1] }
//	  subpass "Opaque" {
//	    code "Shade" {
//	      func = "shade"
//	      read "Lights" { stage = "pixel_shader" }
//	    }
//	  }
//	}
//
//	blit "Present" {
//	  from = "HDR"
//	  to   = "__WINDOW__"
//	}
//
// Code blocks bind to callbacks through Options.Funcs. Subgraph blocks
// resolve against Options.Registry when the script is compiled.
// Expressions see the caller's variables as var, the window size as
// window.width and window.height, and the min, max, ceil and floor
// functions.
//
// A read or write naming an undeclared resource is logged and skipped.
// Every other mistake is reported as hcl.Diagnostics with source
// positions.
package script
