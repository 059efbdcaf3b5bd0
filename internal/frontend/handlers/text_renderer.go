package handlers

import (
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/arena/internal/frontend/telnet"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/input"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/gameserver"
)

// barWidth is the number of cells in a console health bar.
const barWidth = 20

var bandColors = map[match.HealthBand]string{
	match.BandGreen:  telnet.Green,
	match.BandYellow: telnet.Yellow,
	match.BandRed:    telnet.Red,
}

// RenderHealthBar draws s's health as a coloured bar followed by the value,
// e.g. "[#########-----------] 45.0 / 100.0".
func RenderHealthBar(s match.SideSnapshot) string {
	filled := int(math.Round(math.Max(0, math.Min(1, s.Fraction)) * barWidth))
	return fmt.Sprintf("[%s%s] %s",
		telnet.Colorize(bandColors[s.Band], strings.Repeat("#", filled)),
		telnet.Colorize(telnet.BrightBlack, strings.Repeat("-", barWidth-filled)),
		s.HealthText(),
	)
}

// RenderArena formats the whole arena view as console lines.
func RenderArena(v gameserver.View) []string {
	lines := []string{
		telnet.Colorize(telnet.Bold+telnet.BrightYellow, "== ARENA ==") + "  " +
			telnet.Colorf(telnet.Dim, "status: %s", strings.ReplaceAll(v.Match.Status, "_", " ")),
		"",
	}

	if v.Match.Left == nil || v.Match.Right == nil {
		lines = append(lines, renderSelection(v.Selected)...)
		lines = append(append(lines, ""), renderControls(v.Controls)...)
		return append(lines, renderCommentary(v.Commentary)...)
	}

	for _, s := range []*match.SideSnapshot{v.Match.Left, v.Match.Right} {
		lines = append(lines, renderSide(*s, v.Match))
	}
	lines = append(append(lines, ""), renderControls(v.Controls)...)

	if a := v.Match.Announcement(); a != "" {
		lines = append(lines, "", telnet.Colorize(telnet.Bold+telnet.BrightYellow, a),
			telnet.Colorize(telnet.Dim, "Type 'fight' for a rematch or 'new' for a new game."))
	}
	return append(lines, renderCommentary(v.Commentary)...)
}

func renderSide(s match.SideSnapshot, m match.Snapshot) string {
	label := "P1"
	if s.Side == combat.Right.String() {
		label = "P2"
	}
	name := s.Fighter.Name
	if m.Winner != nil && m.Winner.Side == s.Side {
		name = telnet.Colorize(telnet.BrightYellow, name+" *")
	}
	line := fmt.Sprintf("%s %-12s %s", label, name, RenderHealthBar(s))
	if s.Blocking {
		line += "  " + telnet.Colorize(telnet.BgBlue+telnet.BrightWhite, " BLOCKING ")
	}
	if s.Cooldown {
		line += "  " + telnet.Colorf(telnet.BgYellow+telnet.Black, " COOLDOWN %.1fs ", float64(s.CooldownMS)/1000)
	}
	return line
}

func renderSelection(selected []fighter.Fighter) []string {
	slot := func(i int) string {
		if i < len(selected) {
			return telnet.Colorize(telnet.BrightWhite, selected[i].Name)
		}
		return telnet.Colorize(telnet.Dim, "(choose)")
	}
	lines := []string{fmt.Sprintf("P1: %s    P2: %s", slot(0), slot(1))}
	if len(selected) == 2 {
		return append(lines, telnet.Colorize(telnet.Green, "Type 'fight' to begin."))
	}
	return append(lines, telnet.Colorize(telnet.Dim, "Type 'fighters' to list the roster and 'select <fighter>' to choose."))
}

func renderControls(h gameserver.ControlHints) []string {
	return []string{
		telnet.Colorf(telnet.Cyan, "P1 keys: %s", h.Left),
		telnet.Colorf(telnet.Cyan, "P2 keys: %s", h.Right),
	}
}

func renderCommentary(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := []string{"", telnet.Colorize(telnet.Dim, "-- commentary --")}
	for _, l := range lines {
		out = append(out, telnet.Colorize(telnet.Magenta, "  "+l))
	}
	return out
}

// RenderFighters lists the roster, marking selected fighters with their slot.
func RenderFighters(roster []fighter.Fighter, selected []fighter.Fighter) []string {
	if len(roster) == 0 {
		return []string{telnet.Colorize(telnet.Yellow, "The roster is empty.")}
	}
	slots := make(map[string]string, len(selected))
	for i, f := range selected {
		slots[f.ID] = fmt.Sprintf("[P%d]", i+1)
	}
	lines := []string{telnet.Colorize(telnet.Bold, "FIGHTERS")}
	for _, f := range roster {
		line := fmt.Sprintf("  %-10s %-12s HP %6.1f  ATK %5.1f  DEF %5.1f", f.ID, f.Name, f.Health, f.Attack, f.Defense)
		if s, ok := slots[f.ID]; ok {
			line += " " + telnet.Colorize(telnet.Green, s)
		}
		lines = append(lines, line)
	}
	return lines
}

// RenderKeys lists both sides' bindings.
func RenderKeys(c input.Controls) []string {
	row := func(label string, b input.Binding) string {
		combo := make([]string, 0, input.ComboSize)
		for _, k := range b.Critical {
			combo = append(combo, input.DisplayKey(k))
		}
		return fmt.Sprintf("  %s  attack %-3s block %-3s critical %s", label,
			input.DisplayKey(b.Attack), input.DisplayKey(b.Block), strings.Join(combo, "+"))
	}
	return []string{
		telnet.Colorize(telnet.Bold, "KEYS"),
		row("P1", c.Left),
		row("P2", c.Right),
		telnet.Colorize(telnet.Dim, "  hold a block key with 'press', let go with 'release'"),
	}
}

// RenderError formats an arena error for the console.
func RenderError(err error) string {
	return telnet.Colorize(telnet.Red, gameserver.Describe(err))
}
