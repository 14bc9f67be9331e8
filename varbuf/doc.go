// Package varbuf holds CPU mirrors of shader buffers.
//
// A Block is laid out exactly as its reflection.BufferTypeReflection
// describes. Values are written by name, type-checked against the declared
// variable type, and tracked in a dirty byte range that Upload flushes to a
// device buffer with a single write:
//
//	b := varbuf.New(layout)
//	b.SetVariable("tint", mgl32.Vec4{1, 0, 0, 1})
//	b.SetVariable("lights[1].intensity", float32(2))
//	b.Upload(dev, buf, 0, -1)
//
// Accepted value types are float32, int32, uint32, bool, the mgl32
// vectors and square matrices, mgl32.Mat4x3 and Mat3x4, and [N]int32 and
// [N]uint32 for integer vectors. Booleans are stored as 32-bit integers.
package varbuf
