package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"voice-elevator-simulator/pkg/elevator"
	"voice-elevator-simulator/pkg/voice"
	"voice-elevator-simulator/pkg/widget"
)

var replMaxFloor int

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Run the simulator in the terminal with typed commands",
	Long: `Type Spanish commands such as "ir al piso 5", "subí", "abrir puertas"
or "emergencia". Lines starting with "/" are simulator controls:

  /max N     set the top floor (3-40)
  /mute      turn spoken feedback off
  /unmute    turn spoken feedback on
  /dismiss   dismiss an active emergency
  /reset     return the cab to its initial floor
  /state     print the current state
  /quit      exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		wcfg := cfg.WidgetConfig("")
		r := newREPL(cmd.OutOrStdout())
		w, err := widget.New(wcfg, voice.NoOp{}, r)
		if err != nil {
			return err
		}
		if replMaxFloor != 0 {
			w.SetMaxFloor(replMaxFloor)
		}
		return r.run(ctx, w, cmd.InOrStdin())
	},
}

func init() {
	replCmd.Flags().IntVar(&replMaxFloor, "max-floor", 0, "top floor (3-40), overrides config")
}

// replStyles are the terminal styles for the REPL output.
type replStyles struct {
	Title   lipgloss.Style
	Speech  lipgloss.Style
	Label   lipgloss.Style
	Alert   lipgloss.Style
	Help    lipgloss.Style
	Current lipgloss.Style
	Target  lipgloss.Style
}

func newReplStyles() replStyles {
	primary := lipgloss.Color("#00ff9f")
	dim := lipgloss.Color("#6e7681")
	alert := lipgloss.Color("#ff5f5f")
	return replStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1),
		Speech:  lipgloss.NewStyle().Italic(true).Foreground(primary),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		Alert:   lipgloss.NewStyle().Bold(true).Foreground(alert),
		Help:    lipgloss.NewStyle().Foreground(dim),
		Current: lipgloss.NewStyle().Bold(true).Reverse(true),
		Target:  lipgloss.NewStyle().Underline(true).Foreground(primary),
	}
}

// repl is a text-only front end. It doubles as the synthesizer and prints
// every phrase instead of playing it.
type repl struct {
	styles replStyles

	mu  sync.Mutex
	out io.Writer
}

var _ voice.Synthesizer = (*repl)(nil)

func newREPL(out io.Writer) *repl {
	return &repl{styles: newReplStyles(), out: out}
}

func (r *repl) Speak(_ context.Context, phrase, _ string) error {
	r.println(r.styles.Speech.Render("🔊 " + phrase))
	return nil
}

func (r *repl) Cancel() {}

func (r *repl) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func (r *repl) run(ctx context.Context, w *widget.Widget, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()
	go r.follow(ctx, w)

	r.println(r.styles.Title.Render("Ascensor por voz") + " " + r.styles.Help.Render("(/quit para salir)"))
	r.println(r.renderState(w.Snapshot()))

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := r.handleLine(w, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// handleLine runs one input line and reports whether the user asked to quit.
func (r *repl) handleLine(w *widget.Widget, line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		in := w.Submit(line)
		r.println(r.styles.Help.Render("→ " + in.String()))
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/max":
		if len(fields) < 2 {
			r.println(r.styles.Alert.Render("uso: /max N"))
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			r.println(r.styles.Alert.Render("número inválido: " + fields[1]))
			return false
		}
		r.println(r.styles.Help.Render(fmt.Sprintf("piso máximo: %d", w.SetMaxFloor(n))))
	case "/mute":
		w.SetSpeechEnabled(false)
	case "/unmute":
		w.SetSpeechEnabled(true)
	case "/dismiss":
		if !w.DismissEmergency() {
			r.println(r.styles.Help.Render("no hay emergencia activa"))
		}
	case "/reset":
		w.Reset()
	case "/state":
	default:
		r.println(r.styles.Alert.Render("comando desconocido: " + fields[0]))
		return false
	}
	r.println(r.renderState(w.Snapshot()))
	return false
}

// follow redraws the state line on visible changes.
func (r *repl) follow(ctx context.Context, w *widget.Widget) {
	events := w.Events()
	notices := w.Notices()
	for {
		select {
		case <-ctx.Done():
			return
		case <-notices:
			// Speech already prints the status text.
		case ev := <-events:
			switch ev.Type {
			case elevator.EventFloorChange, elevator.EventDoorChange, elevator.EventEmergency:
				r.println(r.renderState(w.Snapshot()))
			}
		}
	}
}

// renderState draws the shaft as one line: floors 0..max with the cab and
// the target highlighted, followed by door and emergency flags.
func (r *repl) renderState(st elevator.State) string {
	var b strings.Builder
	for f := 0; f <= st.MaxFloor; f++ {
		label := strconv.Itoa(f)
		if f == 0 {
			label = "PB"
		}
		switch {
		case f == st.CurrentFloor:
			b.WriteString(r.styles.Current.Render(" " + label + " "))
		case st.TargetFloor != nil && f == *st.TargetFloor:
			b.WriteString(r.styles.Target.Render(" " + label + " "))
		default:
			b.WriteString(r.styles.Help.Render(" " + label + " "))
		}
	}

	doors := "cerradas"
	if st.DoorsOpen {
		doors = "abiertas"
	}
	flags := r.styles.Label.Render("puertas: ") + doors
	if st.Moving {
		flags += "  " + r.styles.Label.Render(string(st.Direction()))
	}
	if st.Emergency {
		flags += "  " + r.styles.Alert.Render("EMERGENCIA")
	}
	return b.String() + "\n" + flags
}
