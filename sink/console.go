// Package sink holds bundled PlayRecord consumers. Anything that can
// satisfy tracker.Sink can be attached; only the console sink ships here.
package sink

import (
	"fmt"

	"InfTrack/game"
	"InfTrack/tracker"

	"github.com/fatih/color"
)

// Console prints each completed play to stdout.
type Console struct{}

func NewConsole() *Console { return &Console{} }

func (c *Console) Name() string { return "console" }

func (c *Console) OnPlay(record tracker.PlayRecord) error {
	title := color.New(color.FgCyan, color.Bold)
	lampColor := lampStyle(record.ClearLamp)

	title.Printf("%s", record.Title())
	fmt.Printf(" [%s", record.Difficulty)
	if record.Level > 0 {
		fmt.Printf(" ☆%d", record.Level)
	}
	fmt.Print("] ")
	lampColor.Printf("%s", record.ClearLamp)
	fmt.Printf("  EX %d (%s)", record.ExScore, record.DJLevel)
	if record.MissCountValid() {
		fmt.Printf("  MISS %d", record.MissCount)
	}
	fmt.Printf("  PG:%d GR:%d GD:%d BD:%d PR:%d  F/S %d/%d\n",
		record.Judge.PGreat, record.Judge.Great, record.Judge.Good,
		record.Judge.Bad, record.Judge.Poor,
		record.Judge.Fast, record.Judge.Slow)
	return nil
}

func lampStyle(lamp game.Lamp) *color.Color {
	switch lamp {
	case game.LampFailed:
		return color.New(color.FgRed)
	case game.LampAssistClear, game.LampEasyClear:
		return color.New(color.FgGreen)
	case game.LampClear:
		return color.New(color.FgHiBlue)
	case game.LampHardClear, game.LampExHardClear:
		return color.New(color.FgHiRed, color.Bold)
	case game.LampFullCombo, game.LampPerfect:
		return color.New(color.FgHiYellow, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}
