package clock

import "sync"

// Время, на которое переключает Toggle
const (
	ToggleNight TimeOfDay = 22
	ToggleDay   TimeOfDay = 12
)

// Clock время суток процесса
type Clock struct {
	mu        sync.RWMutex
	now       TimeOfDay
	dayLength float64 // секунд реального времени на сутки, 0 = время стоит
}

// New создаёт часы, стартующие в start
func New(start TimeOfDay, dayLengthSeconds float64) *Clock {
	if dayLengthSeconds < 0 {
		dayLengthSeconds = 0
	}
	return &Clock{now: start.Normalize(), dayLength: dayLengthSeconds}
}

// Now возвращает текущее время суток
func (c *Clock) Now() TimeOfDay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set задаёт время суток
func (c *Clock) Set(t TimeOfDay) {
	c.mu.Lock()
	c.now = t.Normalize()
	c.mu.Unlock()
}

// Advance сдвигает время на dt секунд симуляции
func (c *Clock) Advance(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dayLength <= 0 || dt <= 0 {
		return
	}
	c.now = (c.now + TimeOfDay(dt*24/c.dayLength)).Normalize()
}

// Toggle переключает день и ночь: при погашенных фонарях ставит 22:00, иначе 12:00
func (c *Clock) Toggle() TimeOfDay {
	c.mu.Lock()
	defer c.mu.Unlock()
	if LanternsLit(c.now) {
		c.now = ToggleDay
	} else {
		c.now = ToggleNight
	}
	return c.now
}

// Lighting освещение для текущего времени
func (c *Clock) Lighting() Lighting {
	return DeriveLighting(c.Now())
}
