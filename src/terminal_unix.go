//go:build !windows

package terminal

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

func notifyOnResize(sigChan chan<- os.Signal) {
	signal.Notify(sigChan, syscall.SIGWINCH)
}

func notifyOnCont(sigChan chan<- os.Signal) {
	signal.Notify(sigChan, syscall.SIGCONT)
}

func stopSignals(sigChan chan os.Signal) {
	signal.Stop(sigChan)
}

// notifyStop delivers SIGSTOP to the process group so a suspended child
// pipeline stops along with its leader.
func notifyStop(p *os.Process) {
	pid := p.Pid
	pgid, err := unix.Getpgid(pid)
	if err == nil {
		pid = pgid * -1
	}
	unix.Kill(pid, syscall.SIGSTOP)
}
