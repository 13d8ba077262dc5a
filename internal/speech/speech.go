// Package speech wraps optional voice input/output capabilities.
//
// Both capabilities are feature-detected at construction and degrade to
// no-ops when absent: the game keeps working with manual text entry and
// silent questions.
package speech

import (
	"bufio"
	"os/exec"
	"strings"
	"sync"
)

// Output speaks question text aloud. Cancel is idempotent and safe to
// call while nothing is playing.
type Output interface {
	Speak(text string)
	Cancel()
}

// Input yields best-effort transcripts, one per utterance. Start and
// Stop are idempotent.
type Input interface {
	Start() error
	Stop()
	Transcripts() <-chan string
}

// NoopOutput is the degraded text-to-speech capability.
type NoopOutput struct{}

// Speak does nothing.
func (NoopOutput) Speak(string) {}

// Cancel does nothing.
func (NoopOutput) Cancel() {}

// NoopInput is the degraded voice-recognition capability.
type NoopInput struct{}

// Start reports no capability by succeeding silently.
func (NoopInput) Start() error { return nil }

// Stop does nothing.
func (NoopInput) Stop() {}

// Transcripts returns a channel that never yields.
func (NoopInput) Transcripts() <-chan string { return nil }

var ttsCommands = [][]string{
	{"say"},
	{"espeak-ng"},
	{"espeak"},
}

// DetectOutput returns a command-backed speaker when a known TTS binary
// is installed, or NoopOutput otherwise.
func DetectOutput(lang string) Output {
	for _, cmd := range ttsCommands {
		if _, err := exec.LookPath(cmd[0]); err == nil {
			return &commandOutput{name: cmd[0], lang: lang}
		}
	}
	return NoopOutput{}
}

type commandOutput struct {
	name string
	lang string

	mu      sync.Mutex
	current *exec.Cmd
}

func (o *commandOutput) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	o.Cancel()

	var cmd *exec.Cmd
	switch o.name {
	case "say":
		cmd = exec.Command(o.name, text)
	default:
		// espeak variants accept a voice/language flag.
		cmd = exec.Command(o.name, "-v", o.lang, text)
	}
	if err := cmd.Start(); err != nil {
		return
	}
	o.mu.Lock()
	o.current = cmd
	o.mu.Unlock()
	go func() {
		// Reap; errors are irrelevant for fire-and-forget audio.
		_ = cmd.Wait()
	}()
}

func (o *commandOutput) Cancel() {
	o.mu.Lock()
	cmd := o.current
	o.current = nil
	o.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// DetectInput returns a recognizer driven by an external command that
// prints one transcript per line on stdout, or NoopInput when the
// command is empty or missing.
func DetectInput(command string) Input {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return NoopInput{}
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return NoopInput{}
	}
	return &commandInput{argv: fields}
}

type commandInput struct {
	argv []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	out     chan string
	started bool
}

func (i *commandInput) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started {
		return nil
	}

	cmd := exec.Command(i.argv[0], i.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	out := make(chan string, 4)
	i.cmd = cmd
	i.out = out
	i.started = true

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			default:
				// Drop transcripts nobody is reading.
			}
		}
		close(out)
		_ = cmd.Wait()
	}()
	return nil
}

func (i *commandInput) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.started {
		return
	}
	i.started = false
	if i.cmd != nil && i.cmd.Process != nil {
		_ = i.cmd.Process.Kill()
	}
	i.cmd = nil
}

func (i *commandInput) Transcripts() <-chan string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.out
}
