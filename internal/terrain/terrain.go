// Package terrain описывает рельеф долины: извилистую реку, единственный мост
// и высоту поверхности для агентов и физики.
package terrain

import "math"

// Константы долины
const (
	RiverWidth   = 6.0  // Ширина русла
	BridgeWidth  = 4.0  // Ширина настила моста (вдоль X)
	BridgeLength = 14.0 // Длина моста поперёк реки (вдоль Z)

	WorldHalfExtent = 55.0 // Граница, за которую не уходят пешеходы

	// Высоты поверхности для агентов
	RiverSinkHeight = -1.8 // Агент в воде
	BridgeHeight    = 0.2  // Агент на мосту
	GroundHeight0   = 0.0  // Обычная земля

	// Высоты твёрдой поверхности для физики
	RiverbedY   = -2.0 // Дно реки
	BridgeDeckY = 0.2  // Верх настила моста
	BankY       = 0.0  // Верх берега
)

// BridgeZ смещение моста по Z: мост пересекает реку в x=0
var BridgeZ = RiverZ(0)

// RiverZ возвращает смещение осевой линии реки по Z для координаты x.
// Сумма двух синусоид разной частоты даёт плавно блуждающее русло.
func RiverZ(x float64) float64 {
	return math.Sin(x*0.05)*15 + math.Cos(x*0.15)*5
}

// InRiver проверяет, попадает ли точка в русло (без учёта моста)
func InRiver(x, z float64) bool {
	return math.Abs(z-RiverZ(x)) < RiverWidth/2
}

// OnBridge проверяет, стоит ли точка на мосту
func OnBridge(x, z float64) bool {
	return math.Abs(x) < BridgeWidth/2 && math.Abs(z-BridgeZ) < BridgeLength/2
}

// IsHazard возвращает true для воды, не перекрытой мостом
func IsHazard(x, z float64) bool {
	return InRiver(x, z) && !OnBridge(x, z)
}

// InHazardBand проверяет попадание в полосу |z - RiverZ(x)| < RiverWidth + margin.
// Используется генератором и расселением как зона запрета.
func InHazardBand(x, z, margin float64) bool {
	return math.Abs(z-RiverZ(x)) < RiverWidth+margin
}

// GroundHeight возвращает высоту поверхности под агентом в точке (x, z)
func GroundHeight(x, z float64) float64 {
	switch {
	case OnBridge(x, z):
		return BridgeHeight
	case InRiver(x, z):
		return RiverSinkHeight
	default:
		return GroundHeight0
	}
}

// SolidSurface возвращает верх твёрдой поверхности для физических тел
func SolidSurface(x, z float64) float64 {
	switch {
	case OnBridge(x, z):
		return BridgeDeckY
	case InRiver(x, z):
		return RiverbedY
	default:
		return BankY
	}
}

// OutOfBounds проверяет выход за границы мира для пешеходов
func OutOfBounds(x, z float64) bool {
	return math.Abs(x) > WorldHalfExtent || math.Abs(z) > WorldHalfExtent
}
