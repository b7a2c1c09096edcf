// Package player двигает аватар игрока: ходьба, прыжок и полёт.
package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/peach-village/internal/vec"
)

// Параметры движения
const (
	WalkSpeed = 10.0
	FlySpeed  = 20.0
	JumpForce = 15.0
	Gravity   = 30.0
	MaxStep   = 0.1 // Ограничение dt при просадке кадров
	FloorY    = 0.0
)

// StartPosition точка появления аватара
var StartPosition = vec.Vec3{X: 0, Y: 10, Z: 0}

// CameraOffset смещение камеры относительно аватара
var CameraOffset = vec.Vec3{X: 0, Y: -5, Z: 5}

// Input текущее состояние управления
type Input struct {
	Forward   bool    `json:"forward"`
	Backward  bool    `json:"backward"`
	Left      bool    `json:"left"`
	Right     bool    `json:"right"`
	Jump      bool    `json:"jump"`
	Descend   bool    `json:"descend"`
	Fly       bool    `json:"fly"`
	CameraYaw float64 `json:"camera_yaw"`
}

// Avatar аватар игрока
type Avatar struct {
	Pos   vec.Vec3 `json:"pos"`
	VelY  float64  `json:"vel_y"`
	Yaw   float64  `json:"yaw"`
	Input Input    `json:"-"`
}

// NewAvatar создаёт аватар в стартовой точке
func NewAvatar() *Avatar {
	return &Avatar{Pos: StartPosition}
}

// SetInput запоминает управление до следующего изменения
func (a *Avatar) SetInput(in Input) {
	a.Input = in
}

// Flying сообщает, включён ли режим полёта
func (a *Avatar) Flying() bool {
	return a.Input.Fly
}

// Grounded сообщает, стоит ли аватар на земле
func (a *Avatar) Grounded() bool {
	return !a.Input.Fly && a.Pos.Y <= FloorY
}

// Camera точка наблюдения, следующая за аватаром
func (a *Avatar) Camera() vec.Vec3 {
	return a.Pos.Add(CameraOffset)
}

// Update продвигает аватар на dt секунд
func (a *Avatar) Update(dt float64) {
	dt = math.Min(dt, MaxStep)
	if dt <= 0 {
		return
	}
	in := a.Input

	side := boolf(in.Right) - boolf(in.Left)
	front := boolf(in.Backward) - boolf(in.Forward)
	speed := WalkSpeed
	if in.Fly {
		speed = FlySpeed
	}

	if side != 0 || front != 0 {
		move := mgl64.Vec3{side, 0, front}.Normalize().Mul(speed * dt)
		move = mgl64.Rotate3DY(in.CameraYaw).Mul3x1(move)
		a.Pos.X += move.X()
		a.Pos.Z += move.Z()
		a.Yaw = math.Atan2(move.X(), move.Z())
	}

	if in.Fly {
		vertical := 0.0
		if in.Jump {
			vertical += FlySpeed
		}
		if in.Descend {
			vertical -= FlySpeed
		}
		a.Pos.Y += vertical * dt
		a.VelY = 0
		return
	}

	a.VelY -= Gravity * dt
	a.Pos.Y += a.VelY * dt
	if a.Pos.Y <= FloorY {
		a.Pos.Y = FloorY
		a.VelY = 0
		if in.Jump {
			a.VelY = JumpForce
		}
	}
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
