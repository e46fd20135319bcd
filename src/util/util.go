package util

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var cachedRuneWidths sync.Map

// StringWidth returns string width where each CR/LF character takes 1 column
func StringWidth(s string) int {
	return uniseg.StringWidth(s) + strings.Count(s, "\n") + strings.Count(s, "\r")
}

// RuneWidth returns the display width of the rune drawn at the given
// column. Tabs expand to the next tab stop, so their width depends on the
// prefix width.
func RuneWidth(r rune, prefixWidth int, tabstop int) int {
	if r == '\t' {
		return tabstop - prefixWidth%tabstop
	} else if w, found := cachedRuneWidths.Load(r); found {
		return w.(int)
	} else if r < 256 {
		return runewidth.RuneWidth(r)
	}
	w := Max(runewidth.RuneWidth(r), 1)
	cachedRuneWidths.Store(r, w)
	return w
}

// Max returns the largest integer
func Max(first int, second int) int {
	if first >= second {
		return first
	}
	return second
}

// Min returns the smallest integer
func Min(first int, second int) int {
	if first <= second {
		return first
	}
	return second
}

// Constrain limits the given integer with the upper and lower bounds
func Constrain(val int, min int, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// DurWithin limits the given time.Duration with the upper and lower bounds
func DurWithin(
	val time.Duration, min time.Duration, max time.Duration) time.Duration {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Atoi converts the string to an integer, falling back to the default value
// when the string is empty or malformed
func Atoi(s string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return value
}

// EnvInt reads an integer from the named environment variable
func EnvInt(name string, defaultValue int) int {
	env := os.Getenv(name)
	if len(env) == 0 {
		return defaultValue
	}
	return Atoi(env, defaultValue)
}

// IsTty returns true if the file refers to a terminal device
func IsTty(file *os.File) bool {
	return isatty.IsTerminal(file.Fd())
}

// ToTty returns true if stdout is a terminal
func ToTty() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Once returns a function that returns the specified boolean value only once
func Once(nextResponse bool) func() bool {
	state := nextResponse
	return func() bool {
		prevState := state
		state = false
		return prevState
	}
}
