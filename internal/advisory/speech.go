package advisory

import (
	"log"
	"os/exec"
	"strings"
)

var speechCommands = []string{"espeak-ng", "espeak", "say"}

// CommandSpeaker pipes text through a local text-to-speech program.
type CommandSpeaker struct {
	Path   string
	Args   []string
	Logger *log.Logger
}

func (s *CommandSpeaker) Speak(text string) {
	cmd := exec.Command(s.Path, s.Args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil && s.Logger != nil {
		s.Logger.Printf("speech via %s failed: %v", s.Path, err)
	}
}

// DetectSpeaker returns a speaker for the named command, or for the first known
// speech program on PATH when name is empty. It returns nil when none is installed.
func DetectSpeaker(name string, logger *log.Logger) Speaker {
	candidates := speechCommands
	if name != "" {
		candidates = []string{name}
	}
	for _, c := range candidates {
		path, err := exec.LookPath(c)
		if err != nil {
			continue
		}
		sp := &CommandSpeaker{Path: path, Logger: logger}
		// espeak reads stdin with --stdin; say reads it when given no text.
		if strings.HasPrefix(c, "espeak") {
			sp.Args = []string{"--stdin"}
		}
		return sp
	}
	return nil
}
