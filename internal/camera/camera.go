// Package camera provides the free-fly camera used by the demo viewer.
package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Input is one frame of camera controls. Forward and Right are in [-1, 1].
type Input struct {
	Forward, Right, Up float32
	LookDelta          rl.Vector2
	Looking            bool
}

// ReadInput samples the keyboard and mouse. Look only applies while the
// right mouse button is held.
func ReadInput() Input {
	var in Input
	if rl.IsKeyDown(rl.KeyW) {
		in.Forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		in.Forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		in.Right++
	}
	if rl.IsKeyDown(rl.KeyA) {
		in.Right--
	}
	if rl.IsKeyDown(rl.KeyE) {
		in.Up++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		in.Up--
	}
	in.Looking = rl.IsMouseButtonDown(rl.MouseRightButton)
	if in.Looking {
		in.LookDelta = rl.GetMouseDelta()
	}
	return in
}

type FlyCamera struct {
	Position  rl.Vector3
	Yaw       float32
	Pitch     float32
	MoveSpeed float32
	LookSpeed float32
	Fovy      float32
}

func New(pos rl.Vector3) *FlyCamera {
	return &FlyCamera{
		Position:  pos,
		Yaw:       -135.0,
		Pitch:     -30.0,
		MoveSpeed: 8.0, // Units per second
		LookSpeed: 0.1,
		Fovy:      45,
	}
}

// LookAt points the camera from its position at target.
func (c *FlyCamera) LookAt(target rl.Vector3) {
	dir := rl.Vector3Normalize(rl.Vector3Subtract(target, c.Position))
	c.Pitch = float32(math.Asin(float64(dir.Y))) * rl.Rad2deg
	c.Yaw = float32(math.Atan2(float64(dir.Z), float64(dir.X))) * rl.Rad2deg
}

func (c *FlyCamera) Update(deltaTime float32, in Input) {
	if in.Looking {
		c.Yaw += in.LookDelta.X * c.LookSpeed
		c.Pitch -= in.LookDelta.Y * c.LookSpeed
	}

	// Clamp pitch
	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}

	forward, right := c.directions()
	move := rl.Vector3Add(rl.Vector3Scale(forward, in.Forward), rl.Vector3Scale(right, in.Right))
	move.Y += in.Up

	// Normalize diagonal movement
	if l := rl.Vector3Length(move); l > 1 {
		move = rl.Vector3Scale(move, 1/l)
	}
	c.Position = rl.Vector3Add(c.Position, rl.Vector3Scale(move, c.MoveSpeed*deltaTime))
}

// directions returns the horizontal forward and right vectors.
func (c *FlyCamera) directions() (forward, right rl.Vector3) {
	yawRad := float64(c.Yaw) * math.Pi / 180
	forward = rl.Vector3{
		X: float32(math.Cos(yawRad)),
		Z: float32(math.Sin(yawRad)),
	}
	right = rl.Vector3{
		X: float32(-math.Sin(yawRad)),
		Z: float32(math.Cos(yawRad)),
	}
	return
}

func (c *FlyCamera) Camera3D() rl.Camera3D {
	yawRad := float64(c.Yaw) * math.Pi / 180
	pitchRad := float64(c.Pitch) * math.Pi / 180

	target := rl.Vector3{
		X: c.Position.X + float32(math.Cos(yawRad)*math.Cos(pitchRad)),
		Y: c.Position.Y + float32(math.Sin(pitchRad)),
		Z: c.Position.Z + float32(math.Sin(yawRad)*math.Cos(pitchRad)),
	}

	return rl.Camera3D{
		Position:   c.Position,
		Target:     target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}
