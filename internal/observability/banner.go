package observability

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorBold     = "\033[1m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
	colorRed      = "\033[91m"
)

var radarFrames = []string{"◜", "◝", "◞", "◟"}
var radarIdx = 0

// termMu synchronizes ALL terminal output so that the cursor
// save/restore in PrintLiveStatus can never be interrupted by a log write.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type termWriter struct {
	out *os.File
}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return tw.out.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
// It serialises writes with PrintLiveStatus via termMu.
func NewTermWriter() *termWriter {
	return &termWriter{out: os.Stderr}
}

// NewStdoutWriter is NewTermWriter for console narration on stdout.
func NewStdoutWriter() *termWriter {
	return &termWriter{out: os.Stdout}
}

func PrintBanner() {
	banner := `
    ____  _____________  ____  _____    ________
   / __ \/ ____/ ____/ |/ / _ \/  _/ |  / / ____/
  / / / / __/ / __/ / ___/ / / // / | | / / __/
 / /_/ / /___/ /___/ /  / /_/ // /  | |/ / /___
/_____/_____/_____/_/  /_____/___/  |___/_____/

          >> PLAN · SEARCH · REFLECT · REPORT <<
`

	width := termWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

func InitializeTerminal() {
	// Header/Logo area: 1-9
	// Dashboard/Status: 10
	// Scrolling output: 12+
	fmt.Print("\033[2J\033[H")
	PrintBanner()
	fmt.Print("\033[12;r")
	fmt.Print("\033[12;1H")
}

func CleanupTerminal() {
	fmt.Print("\033[r")
}

func PrintLiveStatus() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime).Round(time.Second)
	memMB := float64(m.Alloc) / 1024 / 1024

	phase, task, updated := GetStatus()

	phaseColor := colorReset
	switch phase {
	case PhasePlanning, PhaseSynthesizing:
		phaseColor = colorNeonCyan
	case PhaseExecuting:
		phaseColor = colorNeonMag
	case PhaseReflecting:
		phaseColor = colorPurple
	}

	radar := " "
	if phase != PhaseIdle && phase != PhaseDone {
		radar = radarFrames[radarIdx]
		radarIdx = (radarIdx + 1) % len(radarFrames)
	}

	displayTask := task
	if displayTask == "" {
		displayTask = "Waiting..."
	}
	if len(displayTask) > 40 {
		displayTask = displayTask[:37] + "..."
	}

	statusStr := fmt.Sprintf(
		"\033[s\033[10;1H\033[K%s[%s] %s%-12s%s [%s] %s%s%s [%v] [%.1fMB]\033[u",
		colorReset,
		updated.Format("15:04:05"),
		phaseColor+colorBold, phase, colorReset,
		displayTask,
		colorPurple, radar, colorReset,
		uptime,
		memMB,
	)

	// Lock, write the ENTIRE escape sequence atomically, unlock.
	termMu.Lock()
	fmt.Print(statusStr)
	termMu.Unlock()
}
