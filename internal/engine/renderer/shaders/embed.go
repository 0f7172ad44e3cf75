// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// SkinnedVertexShader is the vertex shader for skinned mesh rendering.
// The joint array size is the {{MAX_JOINTS}} placeholder.
//
//go:embed skinned.vert
var SkinnedVertexShader string

// SkinnedFragmentShader is the fragment shader for skinned mesh rendering.
//
//go:embed skinned.frag
var SkinnedFragmentShader string

// LineVertexShader is the vertex shader for debug line overlays.
//
//go:embed line.vert
var LineVertexShader string

// LineFragmentShader draws lines in a flat color.
//
//go:embed line.frag
var LineFragmentShader string
