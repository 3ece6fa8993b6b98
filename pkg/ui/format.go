package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/ja7ad/procmon/pkg/metrics"
	"github.com/ja7ad/procmon/pkg/monitor"
	"github.com/ja7ad/procmon/pkg/system/proc"
	"github.com/ja7ad/procmon/pkg/types"
)

// Columns of the process table, shared by the TUI and the one-shot output.
var Columns = []table.Column{
	{Title: "PID", Width: 7},
	{Title: "USER", Width: 10},
	{Title: "CPU%", Width: 6},
	{Title: "AVG%", Width: 6},
	{Title: "MEM", Width: 10},
	{Title: "TIME+", Width: 10},
	{Title: "COMMAND", Width: 48},
}

const (
	gaugeFill  = "█"
	gaugeEmpty = "░"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
)

// FormatRow renders r as table cells matching Columns.
func FormatRow(r monitor.Row) table.Row {
	return table.Row{
		strconv.Itoa(r.PID),
		userOf(r),
		pct(r.CPU),
		pct(r.CPUAverage),
		memOf(r.ResidentKB),
		r.Elapsed.Clock(),
		commandOf(r),
	}
}

func userOf(r monitor.Row) string {
	if r.User != "" {
		return r.User
	}
	return r.UID
}

func pct(v metrics.Ratio) string {
	if !v.Valid() {
		return "-"
	}
	return fmt.Sprintf("%.1f", v.Percent())
}

func memOf(kb int64) string {
	if kb == proc.UnknownKB {
		return "-"
	}
	return types.FromKB(kb).Humanized()
}

// commandOf falls back to the bracketed comm for processes without a command
// line, as ps does for kernel threads.
func commandOf(r monitor.Row) string {
	if r.Command != "" {
		return r.Command
	}
	return "[" + r.Comm + "]"
}

// Bar renders v as a fixed-width gauge followed by its percentage. NoData
// renders an empty gauge labelled n/a.
func Bar(v metrics.Ratio, width int) string {
	if width < 1 {
		width = 1
	}
	if !v.Valid() {
		return fmt.Sprintf("[%s]    n/a", strings.Repeat(gaugeEmpty, width))
	}
	p := v.Percent()
	if p > 100 {
		p = 100
	}
	filled := int(p / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		p)
}

// Header renders the system summary lines above the table.
func Header(s proc.SystemSnapshot, barWidth int) string {
	name := s.OSName
	if name == "" {
		name = "Linux"
	}
	line1 := titleStyle.Render(name) + "  " +
		subtleStyle.Render(fmt.Sprintf("kernel %s  %d cpus  %s", orDash(s.Kernel), s.CPUCount, s.Cgroup))
	line2 := labelStyle.Render("CPU ") + Bar(s.CPUUtilization, barWidth) + "   " +
		labelStyle.Render("MEM ") + Bar(s.MemoryUtilization, barWidth)
	line3 := subtleStyle.Render(fmt.Sprintf("processes %d  running %d  up %s",
		s.TotalProcesses, s.RunningProcesses, types.FromFloat(s.UptimeSeconds).Clock()))
	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, line3)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
