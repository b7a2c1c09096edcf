package util

import (
	"math/rand"
	"time"
)

// NewSeeded возвращает детерминированный генератор для всего, что влияет на логику:
// раскладка деревни, исключение построек у реки, расселение жителей.
func NewSeeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewCosmetic возвращает свободный генератор для чисто визуального разброса:
// импульсы взрыва, точки появления новых вокселей, фаза анимации.
func NewCosmetic() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// IntRange возвращает случайное целое в [min, max] включительно
func IntRange(r *rand.Rand, min, max int) int {
	return min + r.Intn(max-min+1)
}

// Range возвращает случайное число в [min, max)
func Range(r *rand.Rand, min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// Centered возвращает случайное число в [-span/2, span/2)
func Centered(r *rand.Rand, span float64) float64 {
	return (r.Float64() - 0.5) * span
}

// Clamp ограничивает значение диапазоном [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// DeriveSeed детерминированно смешивает базовый сид с индексом
func DeriveSeed(base int64, index int) int64 {
	h := uint64(base) ^ (uint64(index+1) * 0x9E3779B97F4A7C15)
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return int64(h)
}
