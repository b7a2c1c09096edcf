package vec

import "math"

// Vec3 представляет точку или направление в мировых единицах.
// Y вертикальная ось, плоскость земли XZ.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Zero3 нулевой вектор
var Zero3 = Vec3{}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3) Mul(scalar float64) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo возвращает евклидово расстояние до другой точки
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Length()
}

// Lerp линейно интерполирует к target на долю alpha (0 даёт v, 1 даёт target)
func (v Vec3) Lerp(target Vec3, alpha float64) Vec3 {
	return Vec3{
		X: v.X + (target.X-v.X)*alpha,
		Y: v.Y + (target.Y-v.Y)*alpha,
		Z: v.Z + (target.Z-v.Z)*alpha,
	}
}

// XZ проецирует точку на плоскость земли
func (v Vec3) XZ() Vec2Float {
	return Vec2Float{X: v.X, Y: v.Z}
}

// Equals проверяет точное равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}
