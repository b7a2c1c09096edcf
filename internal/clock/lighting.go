// Package clock хранит время суток и выводит из него освещение деревни.
package clock

import (
	"fmt"
	"math"
)

// TimeOfDay время суток в часах, [0, 24)
type TimeOfDay float64

// Normalize приводит значение к [0, 24)
func (t TimeOfDay) Normalize() TimeOfDay {
	v := math.Mod(float64(t), 24)
	if v < 0 {
		v += 24
	}
	return TimeOfDay(v)
}

// RGB цвет с компонентами в [0, 1]
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

func hexRGB(r, g, b uint8) RGB {
	return RGB{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Hex возвращает цвет в формате #rrggbb
func (c RGB) Hex() string {
	to := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", to(c.R), to(c.G), to(c.B))
}

func (c RGB) lerp(o RGB, k float64) RGB {
	return RGB{R: lerp(c.R, o.R, k), G: lerp(c.G, o.G, k), B: lerp(c.B, o.B, k)}
}

// Lighting производные значения освещения для момента времени
type Lighting struct {
	Ambient  float64 `json:"ambient"`
	Sun      float64 `json:"sun"`
	Moon     float64 `json:"moon"`
	SkyBlend float64 `json:"sky_blend"` // 0 ночное небо, 1 дневное
	Stars    float64 `json:"stars"`
	Sky      RGB     `json:"sky"`   // Цвет неба и тумана
	Light    RGB     `json:"light"` // Цвет направленного света
}

func (l Lighting) lerp(o Lighting, k float64) Lighting {
	return Lighting{
		Ambient:  lerp(l.Ambient, o.Ambient, k),
		Sun:      lerp(l.Sun, o.Sun, k),
		Moon:     lerp(l.Moon, o.Moon, k),
		SkyBlend: lerp(l.SkyBlend, o.SkyBlend, k),
		Stars:    lerp(l.Stars, o.Stars, k),
		Sky:      l.Sky.lerp(o.Sky, k),
		Light:    l.Light.lerp(o.Light, k),
	}
}

func lerp(a, b, k float64) float64 {
	return a + (b-a)*k
}

// Опорные состояния освещения
var (
	NightLighting = Lighting{
		Ambient: 0.3, Sun: 0, Moon: 0.6, SkyBlend: 0, Stars: 1,
		Sky: hexRGB(0x0b, 0x10, 0x26), Light: hexRGB(0x88, 0xaa, 0xdd),
	}
	SunriseLighting = Lighting{
		Ambient: 0.4, Sun: 0.8, Moon: 0.3, SkyBlend: 0.5, Stars: 0.4,
		Sky: hexRGB(0xff, 0xa0, 0x7a), Light: hexRGB(0xff, 0xd0, 0xd5),
	}
	DayLighting = Lighting{
		Ambient: 0.5, Sun: 1.5, Moon: 0, SkyBlend: 1, Stars: 0,
		Sky: hexRGB(0x87, 0xce, 0xeb), Light: hexRGB(0xff, 0xfa, 0xcd),
	}
	SunsetLighting = Lighting{
		Ambient: 0.4, Sun: 0.8, Moon: 0.3, SkyBlend: 0.5, Stars: 0.4,
		Sky: hexRGB(0xff, 0x70, 0x43), Light: hexRGB(0xff, 0x8a, 0x65),
	}
)

// Band участок суток
type Band string

const (
	BandNight    Band = "night"
	BandDawn     Band = "dawn"
	BandMorning  Band = "morning"
	BandDay      Band = "day"
	BandDusk     Band = "dusk"
	BandTwilight Band = "twilight"
)

type band struct {
	name       Band
	start, end float64
	from, to   *Lighting
}

// bands упорядоченная последовательность участков суток
var bands = []band{
	{BandNight, 0, 5, &NightLighting, &NightLighting},
	{BandDawn, 5, 7, &NightLighting, &SunriseLighting},
	{BandMorning, 7, 9, &SunriseLighting, &DayLighting},
	{BandDay, 9, 17, &DayLighting, &DayLighting},
	{BandDusk, 17, 19, &DayLighting, &SunsetLighting},
	{BandTwilight, 19, 21, &SunsetLighting, &NightLighting},
	{BandNight, 21, 24, &NightLighting, &NightLighting},
}

func lookup(t TimeOfDay) band {
	h := float64(t.Normalize())
	for _, b := range bands {
		if h >= b.start && h < b.end {
			return b
		}
	}
	return bands[len(bands)-1]
}

// BandOf возвращает участок суток для времени t
func BandOf(t TimeOfDay) Band {
	return lookup(t).name
}

// DeriveLighting чистая функция времени: постоянные значения внутри ночи и дня,
// линейная интерполяция внутри переходных участков.
func DeriveLighting(t TimeOfDay) Lighting {
	b := lookup(t)
	if b.from == b.to {
		return *b.from
	}
	k := (float64(t.Normalize()) - b.start) / (b.end - b.start)
	return b.from.lerp(*b.to, k)
}

// Пороги фонарей
const (
	LanternsOnAt  = 18.5
	LanternsOffAt = 6.0
)

// LanternsLit фонари горят вечером и ночью
func LanternsLit(t TimeOfDay) bool {
	h := float64(t.Normalize())
	return h >= LanternsOnAt || h < LanternsOffAt
}
