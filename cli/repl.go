package cli

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/stepcalc/history"
	"github.com/zephyrtronium/stepcalc/session"
)

const replHelp = `Enter an expression to evaluate it. Commands:
  :steps         toggle printing every step
  :vars          list variables
  :history [n]   show the last n saved evaluations
  :help          show this help
  :quit          leave`

// NewReplCmd creates the "repl" subcommand.
func NewReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Evaluate expressions interactively",
		Args:  cobra.NoArgs,
		RunE:  runRepl,
	}
	cmd.Flags().Bool("steps", false, "Print every step of each evaluation")
	cmd.Flags().Bool("no-history", false, "Do not save evaluations to history")
	return cmd
}

func runRepl(cmd *cobra.Command, _ []string) error {
	noHistory, _ := cmd.Flags().GetBool("no-history")
	e, err := loadEnv(cmd, noHistory)
	if err != nil {
		return err
	}
	defer e.close()
	s, err := e.session()
	if err != nil {
		return err
	}
	r := repl{
		s:      s,
		store:  e.store,
		user:   e.cfg.UserID,
		w:      cmd.OutOrStdout(),
		errw:   cmd.ErrOrStderr(),
		prompt: isTerminal(cmd.InOrStdin()),
	}
	r.steps, _ = cmd.Flags().GetBool("steps")
	return r.run(cmd, cmd.InOrStdin())
}

type repl struct {
	s      *session.Session
	store  history.Store
	user   string
	w      io.Writer
	errw   io.Writer
	prompt bool
	steps  bool
}

func (r *repl) run(cmd *cobra.Command, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.w, "> ")
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			if !r.command(cmd, line) {
				return nil
			}
			continue
		}
		res, err := r.s.Evaluate(cmd.Context(), line)
		if err != nil {
			fmt.Fprintf(r.errw, "error: %v\n", err)
			continue
		}
		if r.steps {
			fmt.Fprintln(r.w, res.Transcript)
		} else {
			fmt.Fprintln(r.w, res.Text)
		}
	}
	if r.prompt {
		fmt.Fprintln(r.w)
	}
	if err := sc.Err(); err != nil {
		return exitError(exitUsage, "reading input: %v", err)
	}
	return nil
}

// command runs a colon command. It returns false to leave the loop.
func (r *repl) command(cmd *cobra.Command, line string) bool {
	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "q", "quit", "exit":
		return false
	case "steps":
		r.steps = !r.steps
		fmt.Fprintf(r.w, "steps %s\n", onoff(r.steps))
	case "vars":
		vars := r.s.Vars()
		for _, k := range slices.Sorted(maps.Keys(vars)) {
			fmt.Fprintf(r.w, "%s = %v\n", k, vars[k])
		}
	case "history":
		n := 10
		if arg != "" {
			x, err := strconv.Atoi(arg)
			if err != nil || x < 1 {
				fmt.Fprintf(r.errw, "error: bad count %q\n", arg)
				return true
			}
			n = x
		}
		recs, err := r.store.List(cmd.Context(), r.user, n)
		if err != nil {
			fmt.Fprintf(r.errw, "error: %v\n", err)
			return true
		}
		writeRecords(r.w, recs)
	case "help", "h", "?":
		fmt.Fprintln(r.w, replHelp)
	default:
		fmt.Fprintf(r.errw, "error: unknown command %q; try :help\n", name)
	}
	return true
}

func onoff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
