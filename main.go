package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	shellwords "github.com/mattn/go-shellwords"

	terminal "github.com/berrym/lusush-sub003/src"
	"github.com/berrym/lusush-sub003/src/util"
)

var version string = "0.1"
var revision string = "devel"

const usageText = `usage: lusush-term [options]

Interactive terminal inspector: prints every decoded input event until
ctrl-d. Useful for checking what a terminal actually sends and which
integration mode the session layer picks for it.

    --mode MODE    force the integration mode
                   (minimal, native, enhanced, multiplexed)
    --no-probe     skip the capability probes, use heuristics only
    --exec CMD     bind ctrl-e to run CMD with the terminal suspended
    --version      print version and exit
`

func main() {
	defer util.RunAtExitFuncs()

	opts := terminal.DefaultOptions()
	execCommand := ""
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		value := func() string {
			i++
			if i >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a value\n", args[i-1])
				util.Exit(terminal.ExitError)
			}
			return args[i]
		}
		switch args[i] {
		case "--version":
			fmt.Printf("lusush-term %s (%s)\n", version, revision)
			return
		case "--help", "-h":
			fmt.Print(usageText)
			return
		case "--no-probe":
			opts.NoProbe = true
		case "--mode":
			opts.ForceMode = value()
		case "--exec":
			execCommand = value()
		default:
			fmt.Fprintf(os.Stderr, "unknown option: %s\n%s", args[i], usageText)
			util.Exit(terminal.ExitError)
		}
	}

	util.Exit(run(opts, execCommand))
}

func run(opts *terminal.Options, execCommand string) int {
	session, err := terminal.OpenSession(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return terminal.ExitError
	}
	defer session.Close()

	printBanner(session, execCommand)

	for {
		event, err := session.NextEvent(time.Second)
		if err == terminal.ErrTimeout {
			continue
		}
		if err == terminal.ErrSessionClosed {
			return terminal.ExitOk
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return terminal.ExitError
		}

		switch event.Type {
		case terminal.EventKey:
			name := event.Key.Name()
			switch name {
			case "ctrl-d":
				return terminal.ExitOk
			case "ctrl-c":
				return terminal.ExitInterrupt
			case "ctrl-e":
				if len(execCommand) > 0 {
					runSuspended(session, execCommand)
					continue
				}
			case "ctrl-z":
				if err := session.Stop(); err != nil {
					printEvent(session, "stop", err.Error())
				}
				continue
			}
			printEvent(session, "key", fmt.Sprintf("%-12s %q", name, event.Raw))
		case terminal.EventText:
			printEvent(session, "text", fmt.Sprintf("%q width=%d",
				event.Text, displayWidth(event.Text)))
		case terminal.EventMouse:
			mouse := event.Mouse
			printEvent(session, "mouse", fmt.Sprintf(
				"x=%d y=%d left=%v down=%v scroll=%d",
				mouse.X, mouse.Y, mouse.Left, mouse.Down, mouse.Scroll))
		case terminal.EventResize:
			printEvent(session, "resize", fmt.Sprintf("%dx%d", event.Cols, event.Rows))
		case terminal.EventFocus:
			printEvent(session, "focus", fmt.Sprintf("gained=%v", event.Gained))
		case terminal.EventPasteBegin:
			printEvent(session, "paste", "begin")
		case terminal.EventPasteText:
			printEvent(session, "paste", fmt.Sprintf("%q width=%d",
				event.Text, util.StringWidth(event.Text)))
		case terminal.EventPasteEnd:
			printEvent(session, "paste", "end")
		case terminal.EventResume:
			printEvent(session, "resume", "raw mode restored")
		case terminal.EventCapability:
			printEvent(session, "report", fmt.Sprintf("%q", event.Raw))
		default:
			printEvent(session, "unknown", fmt.Sprintf("%q", event.Raw))
			if unknownNote() {
				printEvent(session, "note",
					"unrecognized sequences are shown raw and otherwise ignored")
			}
		}
	}
}

var unknownNote = util.Once(true)

const tabstop = 8

// displayWidth is the column count an editor would draw the text at,
// accounting for tab stops and wide runes.
func displayWidth(s string) int {
	width := 0
	for _, r := range s {
		width += util.RuneWidth(r, width, tabstop)
	}
	return width
}

func printBanner(session *terminal.Session, execCommand string) {
	profile := session.Profile()
	cols, rows := session.Size()
	session.WriteString(fmt.Sprintf(
		"lusush-term %s: mode=%s term=%s program=%q %s size=%dx%d\r\n",
		version, session.Mode(), profile.TermName, profile.Program,
		profile.Reliability, cols, rows))
	hint := "press keys to inspect events, ctrl-z to suspend, ctrl-d to quit"
	if len(execCommand) > 0 {
		hint += ", ctrl-e to run the command"
	}
	session.WriteString(hint + "\r\n")
	session.Flush()
}

func printEvent(session *terminal.Session, kind string, detail string) {
	session.WriteString(fmt.Sprintf("%-8s %s\r\n", kind, detail))
	session.Flush()
}

// runSuspended hands the cooked terminal to the command and takes it back
// afterwards, the same dance the shell does for foreground jobs.
func runSuspended(session *terminal.Session, command string) {
	args, err := shellwords.Parse(command)
	if err != nil || len(args) == 0 {
		printEvent(session, "exec", fmt.Sprintf("bad command: %v", err))
		return
	}
	if err := session.Suspend(); err != nil {
		printEvent(session, "exec", fmt.Sprintf("suspend: %v", err))
		return
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()
	if err := session.Resume(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		util.Exit(terminal.ExitError)
	}
	if runErr != nil {
		printEvent(session, "exec", runErr.Error())
	} else {
		printEvent(session, "exec", "done")
	}
}
