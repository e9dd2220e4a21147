package console

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

var stdin io.ReadCloser

// Confirm asks a yes/no question; anything but an explicit yes is a no.
func Confirm(question string) (bool, error) {
	answer, err := Prompt(question, No, Yes)
	if err != nil {
		return false, err
	}
	return answer == Yes, nil
}

// Prompt reads one line. The first constraint is the default, returned on
// empty or unmatched input.
func Prompt(question string, constraints ...string) (string, error) {
	if len(constraints) == 0 {
		return readLine(question)
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for _, c := range constraints[1:] {
		prompt.WriteString("/")
		prompt.WriteString(c)
	}
	prompt.WriteString("]: ")
	response, err := readLine(prompt.String())
	if err != nil {
		return "", err
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return c, nil
		}
	}
	return constraints[0], nil
}

func readLine(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
		Stdin:  stdin,
		Stdout: writer,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	return rl.Readline()
}
