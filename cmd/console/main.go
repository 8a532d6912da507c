package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/catsdogs/internal/app"
	"github.com/Brownie44l1/catsdogs/internal/classifier"
	"github.com/Brownie44l1/catsdogs/internal/config"
	"github.com/Brownie44l1/catsdogs/internal/logging"
)

const help = `commands:
  <path>        classify the image at path
  use <kind>    select the classifier (general, custom)
  list          show classifiers
  quit          exit`

func main() {
	err := mainImpl()
	if err != nil {
		log.Fatal().Err(err).Msg("console")
	}
}

func mainImpl() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, true)

	def, err := classifier.ParseKind(cfg.Classifier.Default)
	if err != nil {
		return err
	}
	classifiers := app.Classifiers(cfg, def)
	defer classifiers.Close()

	rl, err := readline.New(prompt(def))
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	s := &session{classifiers: classifiers, selected: def, out: rl.Stdout()}
	fmt.Fprintln(s.out, help)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if !s.handle(context.Background(), strings.TrimSpace(line)) {
			break
		}
		rl.SetPrompt(prompt(s.selected))
	}
	return nil
}

func prompt(k classifier.Kind) string {
	return k.String() + "> "
}

// session owns the selected classifier and passes it on every call.
type session struct {
	classifiers *classifier.Set
	selected    classifier.Kind
	out         io.Writer
	readFile    func(string) ([]byte, error)
}

// handle runs one command and reports whether the loop should continue.
func (s *session) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
	case line == "quit" || line == "exit":
		return false
	case line == "help":
		fmt.Fprintln(s.out, help)
	case line == "list":
		for _, st := range s.classifiers.Status() {
			mark := " "
			if st.Kind == s.selected {
				mark = "*"
			}
			state := "ready"
			if !st.Available {
				state = "unavailable"
				if st.Err != nil {
					state += ": " + st.Err.Error()
				}
			}
			fmt.Fprintf(s.out, "%s %-8s %s (%s)\n", mark, st.Kind, st.Name, state)
		}
	case strings.HasPrefix(line, "use "):
		k, err := classifier.ParseKind(strings.TrimPrefix(line, "use "))
		if err != nil {
			fmt.Fprintln(s.out, err)
			return true
		}
		s.selected = k
		fmt.Fprintf(s.out, "using %s\n", k.DisplayName())
	default:
		s.classify(ctx, line)
	}
	return true
}

func (s *session) classify(ctx context.Context, path string) {
	readFile := s.readFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	data, err := readFile(path)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	c, err := s.classifiers.Get(s.selected)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	img, err := classifier.Decode(data)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	predictions, err := c.Classify(ctx, img)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	render(s.out, c.Name(), predictions)
}

func render(w io.Writer, name string, predictions []classifier.Prediction) {
	fmt.Fprintf(w, "[%s]\n", name)
	for _, p := range predictions {
		fmt.Fprintf(w, "  %s\n  %d%% confidence\n", p.Label(), p.Percent())
	}
}
