// Package rose implements readers for the binary file formats of the
// ROSE Online client: ZMS meshes, ZMD skeletons, ZMO animations, ZSC model
// lists, HIM heightmaps, TIL tile maps, IFO map objects and ZON zone files.
//
// All formats are little-endian. Parsers operate on in-memory byte slices;
// files are small enough that streaming buys nothing.
package rose

// Vector2 is a 2D float vector (UV coordinates, grid positions).
type Vector2 struct {
	X, Y float32
}

// Vector3 is a 3D float vector.
type Vector3 struct {
	X, Y, Z float32
}

// Scale returns the vector multiplied by s.
func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Quaternion holds a rotation as X, Y, Z, W. ROSE files store quaternions
// in W, X, Y, Z order on disk; readers reorder on load.
type Quaternion struct {
	X, Y, Z, W float32
}

// Color4 is an RGBA color with float components.
type Color4 struct {
	R, G, B, A float32
}
