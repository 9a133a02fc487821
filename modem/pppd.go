package modem

import (
	"os"
	"os/exec"
	"syscall"
)

// ProcessManager spawns and terminates the external network daemon a
// successful dial hands off to. It is an injectable collaborator so the
// core can be tested without forking real processes.
type ProcessManager interface {
	// Spawn starts the daemon with the given argument vector (argv[0]
	// is the executable path) and returns its process identifier. A
	// failure to start is reported as *SpawnError.
	Spawn(args []string) (pid int, err error)
	// Terminate signals the daemon identified by pid to shut down.
	Terminate(pid int) error
}

// ExecManager runs the network daemon as a real child process,
// terminating it with SIGTERM.
type ExecManager struct{}

func (ExecManager) Spawn(args []string) (int, error) {
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return 0, &SpawnError{Err: err}
	}
	// Reap the child when it exits so it does not linger as a zombie.
	go cmd.Wait()
	return cmd.Process.Pid, nil
}

func (ExecManager) Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
