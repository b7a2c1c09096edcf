package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/annel0/peach-village/internal/recorder"
	"github.com/annel0/peach-village/internal/sim"
)

// errLimit прерывает чтение записи после лимита кадров
var errLimit = errors.New("limit reached")

func main() {
	var (
		file     = flag.String("file", "", "Файл записи frames-*.jsonl.zst")
		command  = flag.String("cmd", "tail", "Command: tail, stats, phases")
		fromTick = flag.Uint64("from", 0, "Пропустить кадры с тиком меньше заданного")
		limit    = flag.Int("limit", 100, "Maximum number of frames for tail")
	)
	flag.Parse()

	if *file == "" {
		log.Fatalf("❌ Не указан файл записи (-file)")
	}

	var err error
	switch *command {
	case "tail":
		err = tailFrames(os.Stdout, *file, *fromTick, *limit)
	case "stats":
		err = showStats(os.Stdout, *file, *fromTick)
	case "phases":
		err = showPhases(os.Stdout, *file, *fromTick)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, phases")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

// tailFrames печатает сводку по каждому кадру
func tailFrames(w io.Writer, path string, from uint64, limit int) error {
	count := 0
	err := recorder.Replay(path, func(f sim.Frame) error {
		if f.Tick < from {
			return nil
		}
		printFrame(w, &f)
		count++
		if limit > 0 && count >= limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return err
	}
	fmt.Fprintf(w, "\n📊 Total frames: %d\n", count)
	return nil
}

// Summary агрегаты по записи
type Summary struct {
	Frames      int
	FirstTick   uint64
	LastTick    uint64
	Elapsed     float64
	PhaseFrames map[string]int
	Shapes      []string
	MaxLocked   int
	LitFrames   int
	Villagers   map[string]int // по ролям, из последнего кадра
}

func summarize(path string, from uint64) (*Summary, error) {
	s := &Summary{PhaseFrames: make(map[string]int)}
	err := recorder.Replay(path, func(f sim.Frame) error {
		if f.Tick < from {
			return nil
		}
		if s.Frames == 0 {
			s.FirstTick = f.Tick
		}
		s.Frames++
		s.LastTick = f.Tick
		s.Elapsed = f.Elapsed
		s.PhaseFrames[f.Status.Phase]++
		if n := len(s.Shapes); n == 0 || s.Shapes[n-1] != f.Status.Shape {
			s.Shapes = append(s.Shapes, f.Status.Shape)
		}
		if f.Status.Locked > s.MaxLocked {
			s.MaxLocked = f.Status.Locked
		}
		if f.Status.LanternsLit {
			s.LitFrames++
		}
		s.Villagers = f.Status.Villagers
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// showStats выводит статистику записи
func showStats(w io.Writer, path string, from uint64) error {
	s, err := summarize(path, from)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "📊 Recording statistics")
	fmt.Fprintf(w, "Frames: %d (ticks %d - %d, %.1fs simulated)\n", s.Frames, s.FirstTick, s.LastTick, s.Elapsed)
	fmt.Fprintf(w, "Shapes: %s\n", strings.Join(s.Shapes, " → "))
	fmt.Fprintf(w, "Max locked voxels: %d\n", s.MaxLocked)
	fmt.Fprintf(w, "Frames with lanterns lit: %d\n", s.LitFrames)

	fmt.Fprintln(w, "\nBy phase:")
	for _, k := range sortedKeys(s.PhaseFrames) {
		fmt.Fprintf(w, "  %s: %d frames\n", k, s.PhaseFrames[k])
	}
	fmt.Fprintln(w, "\nVillagers by role:")
	for _, k := range sortedKeys(s.Villagers) {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Villagers[k])
	}
	return nil
}

// Transition смена фазы координатора в записи
type Transition struct {
	Tick    uint64
	Elapsed float64
	From    string
	To      string
	Shape   string
}

func phaseTransitions(path string, from uint64) ([]Transition, error) {
	var (
		out  []Transition
		prev string
	)
	err := recorder.Replay(path, func(f sim.Frame) error {
		if f.Tick < from {
			return nil
		}
		if prev != "" && f.Status.Phase != prev {
			out = append(out, Transition{
				Tick:    f.Tick,
				Elapsed: f.Elapsed,
				From:    prev,
				To:      f.Status.Phase,
				Shape:   f.Status.Shape,
			})
		}
		prev = f.Status.Phase
		return nil
	})
	return out, err
}

// showPhases выводит последовательность переходов фаз
func showPhases(w io.Writer, path string, from uint64) error {
	transitions, err := phaseTransitions(path, from)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "🔁 Phase transitions")
	for _, t := range transitions {
		fmt.Fprintf(w, "[%8.2fs] tick %-8d %s → %s (%s)\n", t.Elapsed, t.Tick, t.From, t.To, t.Shape)
	}
	fmt.Fprintf(w, "\nTotal transitions: %d\n", len(transitions))
	return nil
}

// printFrame выводит кадр в читаемом формате
func printFrame(w io.Writer, f *sim.Frame) {
	st := f.Status
	fmt.Fprintf(w, "[%8.2fs] tick %-8d %-10s %-16s voxels=%d locked=%d hour=%05.2f %s",
		f.Elapsed, f.Tick, st.Phase, st.Shape, st.Voxels, st.Locked, st.Hour, st.Band)
	if st.Pending {
		fmt.Fprint(w, " ⏳")
	}
	if st.LanternsLit {
		fmt.Fprint(w, " 🏮")
	}
	fmt.Fprintln(w)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
