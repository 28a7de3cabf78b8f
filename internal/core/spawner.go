package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DonovanMods/instance-launcher/internal/domain"
	"github.com/DonovanMods/instance-launcher/internal/storage/logs"
)

// GameProcessName labels the game process in errors
const GameProcessName = "game"

// ExecSpawner starts the game as a child process
type ExecSpawner struct {
	logs   *logs.Store // May be nil, in which case output is discarded
	stdout io.Writer   // Optional copy of the game output
}

// NewExecSpawner creates a spawner writing game output to logStore
func NewExecSpawner(logStore *logs.Store) *ExecSpawner {
	return &ExecSpawner{logs: logStore}
}

// WithOutput also copies the game output to w
func (s *ExecSpawner) WithOutput(w io.Writer) *ExecSpawner {
	s.stdout = w
	return s
}

// Spawn starts the game described by spec in the profile directory.
// The game is not tied to ctx; it keeps running until it exits or is killed.
func (s *ExecSpawner) Spawn(_ context.Context, spec LaunchSpec) (*Process, error) {
	argv := BuildCommand(spec)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = spec.Profile.Path
	cmd.Env = os.Environ()

	var closers []io.Closer
	var outputs []io.Writer
	if s.logs != nil && spec.ID != "" {
		f, err := s.logs.Create(spec.Profile.Path, spec.ID)
		if err != nil {
			return nil, &domain.SpawnError{Process: GameProcessName, Err: err}
		}
		outputs = append(outputs, f)
		closers = append(closers, f)
	}
	if s.stdout != nil {
		outputs = append(outputs, s.stdout)
	}
	if len(outputs) > 0 {
		w := io.MultiWriter(outputs...)
		cmd.Stdout = w
		cmd.Stderr = w
	}

	return StartProcess(GameProcessName, cmd, spec.OnState, closers...)
}

// BuildCommand returns the full argv for a launch: the wrapper, if any,
// followed by the java invocation.
func BuildCommand(spec LaunchSpec) []string {
	var argv []string
	argv = append(argv, strings.Fields(spec.Wrapper)...)
	argv = append(argv, spec.Java)

	if spec.Memory.Minimum != nil {
		argv = append(argv, fmt.Sprintf("-Xms%dM", *spec.Memory.Minimum))
	}
	argv = append(argv, fmt.Sprintf("-Xmx%dM", spec.Memory.Maximum))
	argv = append(argv, spec.JavaArgs...)

	var mainClass string
	var versionID string
	if spec.Version != nil {
		versionID = spec.Version.ID
		mainClass = spec.Version.MainClass
		if len(spec.Version.Classpath) > 0 {
			entries := make([]string, len(spec.Version.Classpath))
			for i, entry := range spec.Version.Classpath {
				if !filepath.IsAbs(entry) {
					entry = filepath.Join(spec.Profile.Path, entry)
				}
				entries[i] = entry
			}
			argv = append(argv, "-cp", strings.Join(entries, string(os.PathListSeparator)))
		}
	}
	if versionID == "" {
		versionID = spec.Profile.Metadata.GameVersion
	}
	if mainClass != "" {
		argv = append(argv, mainClass)
	}

	argv = append(argv,
		"--username", spec.Credentials.Username,
		"--uuid", spec.Credentials.ID,
		"--accessToken", spec.Credentials.AccessToken,
		"--version", versionID,
		"--gameDir", spec.Profile.Path,
		"--width", strconv.Itoa(int(spec.Resolution.Width)),
		"--height", strconv.Itoa(int(spec.Resolution.Height)),
	)
	return argv
}
