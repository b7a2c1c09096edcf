package villager

import "math"

// Joint углы Эйлера сустава в радианах
type Joint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose параметры скелета, вычисляемые каждый тик и нигде не хранящиеся как состояние
type Pose struct {
	HipsY      float64 `json:"hips_y"`
	LegForward float64 `json:"leg_forward"`
	Torso      Joint   `json:"torso"`
	Head       Joint   `json:"head"`
	LeftArm    Joint   `json:"left_arm"`
	RightArm   Joint   `json:"right_arm"`
	LeftLeg    Joint   `json:"left_leg"`
	RightLeg   Joint   `json:"right_leg"`
}

// RestPose стойка по умолчанию
func RestPose() Pose {
	return Pose{HipsY: HipHeight}
}

// Частоты анимаций
const (
	walkCycle   = 8.0
	walkSwing   = 0.6
	walkBob     = 0.05
	farmCycle   = 2.5
	flailCycle  = 20.0
	shuffleAmp  = 0.1
	scanCycle   = 0.5
	scanAmp     = 0.2
	legForwardZ = 0.1
)

// DerivePose вычисляет позу по роли и времени t (уже со сдвигом фазы жителя).
// В воде руки всегда машут, независимо от роли.
func DerivePose(role Role, t float64, flailing bool) Pose {
	p := RestPose()

	switch role {
	case Walker:
		if flailing {
			break
		}
		limbT := t * walkCycle
		p.LeftLeg.X = math.Sin(limbT) * walkSwing
		p.RightLeg.X = math.Sin(limbT+math.Pi) * walkSwing
		p.LeftArm.X = math.Sin(limbT+math.Pi) * walkSwing
		p.RightArm.X = math.Sin(limbT) * walkSwing
		p.HipsY = HipHeight + math.Abs(math.Sin(limbT))*walkBob

	case Farmer:
		w := t * farmCycle
		p.Torso.X = 0.6 + math.Sin(w)*0.1
		p.RightArm.X = -2.0 + math.Sin(w)*0.3
		p.RightArm.Z = -0.2
		p.LeftArm.X = -1.8 + math.Sin(w+0.5)*0.3
		p.Head.X = -0.5

	case Sitting:
		p.HipsY = SeatHeight
		p.LeftLeg.X = -math.Pi / 2
		p.RightLeg.X = -math.Pi / 2
		p.LegForward = legForwardZ
		p.RightArm.X = -1.2 + math.Sin(t*10)*shuffleAmp
		p.RightArm.Z = -0.3
		p.LeftArm.X = -1.2 + math.Cos(t*8)*shuffleAmp
		p.LeftArm.Z = 0.3
		p.Head.X = 0.4
		p.Head.Y = math.Sin(t*scanCycle) * scanAmp
	}

	if flailing {
		wave := math.Sin(t*flailCycle) * 0.5
		p.LeftArm = Joint{Z: math.Pi - 0.5 + wave}
		p.RightArm = Joint{Z: -math.Pi + 0.5 - wave}
	}
	return p
}

// IsFlailPose проверяет, что руки подняты над головой
func (p Pose) IsFlailPose() bool {
	return p.LeftArm.Z > math.Pi/2 && p.RightArm.Z < -math.Pi/2
}
