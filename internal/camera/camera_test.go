package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestLookAtAimsCamera(t *testing.T) {
	c := New(rl.Vector3{X: 0, Y: 5, Z: 0})
	c.LookAt(rl.Vector3{X: 10, Y: 5, Z: 0})

	assert.InDelta(t, 0, c.Yaw, 1e-3)
	assert.InDelta(t, 0, c.Pitch, 1e-3)

	cam := c.Camera3D()
	dir := rl.Vector3Subtract(cam.Target, cam.Position)
	assert.InDelta(t, 1, dir.X, 1e-4)
	assert.InDelta(t, 0, dir.Y, 1e-4)
	assert.InDelta(t, 0, dir.Z, 1e-4)
}

func TestUpdateMovesAlongView(t *testing.T) {
	c := New(rl.Vector3{})
	c.Yaw, c.Pitch = 0, 0

	c.Update(1, Input{Forward: 1})
	assert.InDelta(t, c.MoveSpeed, c.Position.X, 1e-4)
	assert.InDelta(t, 0, c.Position.Z, 1e-4)

	c.Update(1, Input{Right: 1})
	assert.InDelta(t, c.MoveSpeed, c.Position.Z, 1e-4)
}

func TestUpdateNormalizesDiagonal(t *testing.T) {
	c := New(rl.Vector3{})
	c.Yaw = 0
	c.Update(1, Input{Forward: 1, Right: 1})
	assert.InDelta(t, c.MoveSpeed, rl.Vector3Length(c.Position), 1e-4)
}

func TestLookClampsPitch(t *testing.T) {
	c := New(rl.Vector3{})
	c.Update(0, Input{Looking: true, LookDelta: rl.Vector2{Y: -10000}})
	assert.Equal(t, float32(89), c.Pitch)

	yaw := c.Yaw
	c.Update(0, Input{LookDelta: rl.Vector2{X: 500}})
	assert.Equal(t, yaw, c.Yaw)
}
