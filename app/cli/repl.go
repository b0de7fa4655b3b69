package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/session"
)

// RunREPL reads lines from in until quit, EOF or ctx is done and writes the outputs to out.
// The REPL owns a single Session for its whole lifetime.
func RunREPL(ctx context.Context, dispatcher Dispatcher, in io.Reader, out io.Writer) error {
	s := session.New()
	scanner := bufio.NewScanner(in)

	if _, err := fmt.Fprintf(out, "\n%s\n\n%s\n\n", msgWelcome, usage); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.WriteString(out, msgPrompt); err != nil {
			return err
		}

		if !scanner.Scan() {
			return scanner.Err()
		}

		output := dispatcher.Execute(ctx, s, scanner.Text())
		if output.Text != "" {
			if _, err := fmt.Fprintln(out, output.Text); err != nil {
				return err
			}
		}

		if output.Quit {
			return nil
		}
	}
}
