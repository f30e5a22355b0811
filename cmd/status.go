package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/idle"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// statusPrinter writes orchestrator snapshots to a terminal. A line is printed
// whenever the phase or the idled titles change; on a terminal the countdown
// is drawn as a progress bar.
type statusPrinter struct {
	out         io.Writer
	interactive bool
	last        string
	bar         *progressbar.ProgressBar
	barMax      int
}

func newStatusPrinter(out io.Writer, interactive bool) *statusPrinter {
	return &statusPrinter{out: out, interactive: interactive}
}

func (p *statusPrinter) Update(st idle.Status) {
	line := describe(st)
	if line != p.last {
		p.finishBar()
		p.last = line
		fmt.Fprintln(p.out, line)
	}
	if !p.interactive || !st.CountdownEnabled || st.Countdown <= 0 {
		return
	}
	if p.bar == nil || st.Countdown > p.barMax {
		p.finishBar()
		p.barMax = st.Countdown
		p.bar = progressbar.NewOptions(st.Countdown,
			progressbar.OptionSetDescription("Next drop check"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(p.barMax - st.Countdown)
}

func (p *statusPrinter) finishBar() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
		p.barMax = 0
	}
}

// Close clears a bar left on screen.
func (p *statusPrinter) Close() {
	p.finishBar()
}

func describe(st idle.Status) string {
	var sb strings.Builder
	sb.WriteString(st.Phase)
	switch {
	case st.Current != nil:
		fmt.Fprintf(&sb, ": %s (%s, %s drops)", st.Current.Name, st.Current.ID, st.Current.Remaining)
	case len(st.Idling) > 0:
		fmt.Fprintf(&sb, ": %s", titleNames(st.Idling))
	}
	if st.EligibleCount > 0 {
		fmt.Fprintf(&sb, " [%d titles, %d drops left]", st.EligibleCount, st.RemainingDrops)
	}
	return sb.String()
}

func titleNames(ts []badge.Title) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
