package common

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32(nil)))

	b := SliceToBytes([]uint32{1, 0x01020304})
	assert.Len(t, b, 8)
	assert.Equal(t, uint32(0x01020304), binary.LittleEndian.Uint32(b[4:]))
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(mgl32.DegToRad(90), 1, 0.5, 20)

	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -20, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)

	edge := p.Mul4x1(mgl32.Vec4{1, 0, -1, 1})
	assert.InDelta(t, 1, edge.X()/edge.W(), 1e-5)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "Mesh", Coalesce("", "Mesh"))
	assert.Equal(t, "a", Coalesce("a", "b"))
	assert.Equal(t, 0, Coalesce[int]())
}
