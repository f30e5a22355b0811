package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/idle"
)

// IdleView shows the idler's status and forwards the control buttons to it.
type IdleView struct {
	post func(idle.Event) bool

	phase     *widget.Label
	current   *CopyableLabel
	drops     *widget.Label
	countdown *widget.ProgressBar
	remaining *widget.Label
	list      *widget.List
	idling    []badge.Title

	start, pause, resume, skip, stop *widget.Button
}

// NewIdleView builds the widgets. Bind must be called before the buttons do anything.
func NewIdleView() *IdleView {
	v := &IdleView{
		phase:     widget.NewLabelWithStyle(idle.PhaseWaiting, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		current:   NewCopyableLabel("-"),
		drops:     widget.NewLabel(""),
		countdown: widget.NewProgressBar(),
		remaining: widget.NewLabel(""),
	}
	v.countdown.Min = 0
	v.countdown.Max = idle.MaxCountdownSeconds
	v.countdown.TextFormatter = func() string { return formatSeconds(int(v.countdown.Value)) }

	v.list = widget.NewList(
		func() int { return len(v.idling) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(v.idling) {
				t := v.idling[id]
				obj.(*widget.Label).SetText(fmt.Sprintf("%s  (%.1f hrs)", t.Name, t.HoursPlayed))
			}
		},
	)

	send := func(ev idle.Event) func() {
		return func() {
			if v.post != nil {
				v.post(ev)
			}
		}
	}
	v.start = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), send(idle.EventStart))
	v.pause = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), send(idle.EventPause))
	v.resume = widget.NewButtonWithIcon("Resume", theme.MediaReplayIcon(), send(idle.EventResume))
	v.skip = widget.NewButtonWithIcon("Skip", theme.MediaSkipNextIcon(), send(idle.EventSkip))
	v.stop = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), send(idle.EventStop))
	v.render(idle.Status{State: idle.StateNotStarted, Phase: idle.PhaseWaiting})
	return v
}

// Bind sets the function the buttons post events to.
func (v *IdleView) Bind(post func(idle.Event) bool) { v.post = post }

// Update is the orchestrator observer. It may be called from any goroutine.
func (v *IdleView) Update(st idle.Status) {
	runOnMain(func() { v.render(st) })
}

func (v *IdleView) render(st idle.Status) {
	v.phase.SetText(st.Phase)
	if st.Current != nil {
		v.current.Value = st.Current.ID
		drops := ""
		if !st.Current.Remaining.IsUnknown() {
			drops = fmt.Sprintf(", %s card drops remaining", st.Current.Remaining)
		}
		v.current.SetText(fmt.Sprintf("%s (%s)%s", st.Current.Name, st.Current.ID, drops))
	} else {
		v.current.Value = ""
		v.current.SetText("-")
	}
	v.drops.SetText(fmt.Sprintf("%d titles eligible, %d card drops remaining", st.EligibleCount, st.RemainingDrops))

	if st.CountdownEnabled {
		v.countdown.SetValue(float64(st.Countdown))
		v.countdown.Show()
		v.remaining.SetText("Next drop check in " + formatSeconds(st.Countdown))
	} else {
		v.countdown.Hide()
		v.remaining.SetText("")
	}

	v.idling = st.Idling
	v.list.Refresh()

	active := st.State == idle.StateSoloActive || st.State == idle.StateSimultaneousActive ||
		st.State == idle.StateFastModeRoundRobin || st.State == idle.StateWaitingForNextTitle
	setEnabled(v.start, st.State == idle.StateNotStarted || st.State == idle.StateComplete)
	setEnabled(v.pause, active)
	setEnabled(v.resume, st.State == idle.StatePaused)
	setEnabled(v.skip, st.Current != nil)
	setEnabled(v.stop, active)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

// Content lays the view out.
func (v *IdleView) Content() fyne.CanvasObject {
	header := container.NewVBox(
		v.phase,
		container.NewHBox(widget.NewLabel("Current:"), v.current),
		v.drops,
		v.remaining,
		v.countdown,
		container.NewHBox(v.start, v.pause, v.resume, v.skip, v.stop),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Idling now", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
	)
	return container.NewBorder(header, nil, nil, nil, v.list)
}
