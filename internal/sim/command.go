package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/peach-village/internal/player"
)

// Ошибки приёма команд
var (
	ErrInboxFull      = errors.New("sim: command inbox full")
	ErrUnknownCommand = errors.New("sim: unknown command")
	ErrBadCommand     = errors.New("sim: malformed command")
)

// CommandKind тип команды
type CommandKind string

const (
	CmdSmash       CommandKind = "smash"
	CmdRebuild     CommandKind = "rebuild"
	CmdToggleTime  CommandKind = "toggle_time"
	CmdSetTime     CommandKind = "set_time"
	CmdPlayerInput CommandKind = "player_input"
)

// InboxSize ёмкость очереди команд
const InboxSize = 64

// Command входящая команда от API или websocket-клиента
type Command struct {
	Kind  CommandKind   `json:"kind"`
	Hour  *float64      `json:"hour,omitempty"`
	Input *player.Input `json:"input,omitempty"`

	reply chan Result
}

// Result итог обработки команды в потоке тиков
type Result struct {
	Kind     CommandKind `json:"kind"`
	Accepted bool        `json:"accepted"`
	Phase    string      `json:"phase"`
	Hour     float64     `json:"hour"`
	Tick     uint64      `json:"tick"`
}

// Validate проверяет команду до постановки в очередь
func (c Command) Validate() error {
	switch c.Kind {
	case CmdSmash, CmdRebuild, CmdToggleTime:
		return nil
	case CmdSetTime:
		if c.Hour == nil || math.IsNaN(*c.Hour) || math.IsInf(*c.Hour, 0) {
			return fmt.Errorf("%w: set_time requires a finite hour", ErrBadCommand)
		}
		return nil
	case CmdPlayerInput:
		if c.Input == nil {
			return fmt.Errorf("%w: player_input requires input", ErrBadCommand)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Kind)
	}
}
