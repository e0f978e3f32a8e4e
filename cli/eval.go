package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/stepcalc"
	"github.com/zephyrtronium/stepcalc/session"
)

// NewEvalCmd creates the "eval" subcommand.
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [expression...]",
		Short: "Evaluate expressions",
		Long: "Evaluate each argument as an expression. With no arguments and no --in, " +
			"each line of standard input is an expression. Variables assigned by one " +
			"expression are visible to the ones after it.",
		RunE: runEval,
	}

	cmd.Flags().StringArray("given", nil, "name=value variable definition (repeatable)")
	cmd.Flags().String("in", "", "Read expressions from a file, one per line (- for stdin)")
	cmd.Flags().Bool("echo", false, "Print each parse tree")
	cmd.Flags().Bool("postfix", false, "Print each expression in postfix order")
	cmd.Flags().Bool("steps", false, "Print every step of each evaluation")
	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().Bool("no-history", false, "Do not save evaluations to history")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return exitError(exitUsage, "unknown format %q", format)
	}
	exprs, err := evalInputs(cmd, args)
	if err != nil {
		return err
	}

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
	if err := applyGiven(cmd, s, e.cfg.MaxDepth); err != nil {
		return err
	}

	out := evalOutput{w: cmd.OutOrStdout(), errw: cmd.ErrOrStderr(), format: format}
	out.echo, _ = cmd.Flags().GetBool("echo")
	out.postfix, _ = cmd.Flags().GetBool("postfix")
	out.steps, _ = cmd.Flags().GetBool("steps")

	failed := 0
	for _, src := range exprs {
		if !out.eval(cmd, s, src) {
			failed++
		}
	}
	if failed > 0 {
		return exitError(exitEval, "%d of %d expressions failed", failed, len(exprs))
	}
	return nil
}

// evalInputs collects the expressions to evaluate.
func evalInputs(cmd *cobra.Command, args []string) ([]string, error) {
	in, _ := cmd.Flags().GetString("in")
	var exprs []string
	var r io.Reader
	switch {
	case in != "" && in != "-":
		// #nosec G304 -- user-specified input file.
		f, err := os.Open(in)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, exitError(exitFileNotFound, "file not found: %s", in)
			}
			return nil, exitError(exitUsage, "%v", err)
		}
		defer f.Close()
		r = f
	case in == "-", len(args) == 0:
		r = cmd.InOrStdin()
	}
	if r != nil {
		lines, err := readExprs(r)
		if err != nil {
			return nil, exitError(exitUsage, "reading input: %v", err)
		}
		exprs = append(exprs, lines...)
	}
	return append(exprs, args...), nil
}

// readExprs reads one expression per line, skipping blank lines and lines
// starting with #.
func readExprs(r io.Reader) ([]string, error) {
	var exprs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exprs = append(exprs, line)
	}
	return exprs, sc.Err()
}

// applyGiven evaluates --given definitions into the session's variables.
func applyGiven(cmd *cobra.Command, s *session.Session, depth int) error {
	given, _ := cmd.Flags().GetStringArray("given")
	for _, d := range given {
		name, src, ok := strings.Cut(d, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return exitError(exitUsage, `variable definitions must be "name=value", not %q`, d)
		}
		v, err := stepcalc.EvalString(src, stepcalc.MaxDepth(depth), stepcalc.SetVars(s.Vars()))
		if err != nil {
			return exitError(exitUsage, "setting %s: %v", name, err)
		}
		s.Set(name, v)
	}
	return nil
}

type evalOutput struct {
	w, errw io.Writer
	format  string
	echo    bool
	postfix bool
	steps   bool
}

// evalJSON is one line of JSON output.
type evalJSON struct {
	Expression string   `json:"expression"`
	Tree       string   `json:"tree,omitempty"`
	Postfix    string   `json:"postfix,omitempty"`
	Result     string   `json:"result,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Steps      []string `json:"steps,omitempty"`
	RecordID   int64    `json:"record_id,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// eval evaluates one expression and writes its output. It reports whether
// evaluation succeeded.
func (o *evalOutput) eval(cmd *cobra.Command, s *session.Session, src string) bool {
	j := evalJSON{Expression: src}
	if o.echo || o.postfix {
		if tree, err := s.Parse(src); err == nil {
			if o.echo {
				j.Tree = tree.String()
			}
			if o.postfix {
				j.Postfix = tree.Postfix()
			}
		}
	}
	r, err := s.Evaluate(cmd.Context(), src)
	if err != nil {
		j.Error = err.Error()
	} else {
		j.Result = r.Text
		j.Kind = r.Kind
		j.RecordID = r.RecordID
		if o.steps {
			j.Steps = r.Steps
		}
	}

	if o.format == "json" {
		b, _ := json.Marshal(j)
		fmt.Fprintf(o.w, "%s\n", b)
		return err == nil
	}
	if j.Tree != "" {
		fmt.Fprintf(o.w, "%s : ", j.Tree)
	}
	if j.Postfix != "" {
		fmt.Fprintf(o.w, "[%s] ", j.Postfix)
	}
	if err != nil {
		if j.Tree != "" || j.Postfix != "" {
			fmt.Fprintln(o.w)
		}
		fmt.Fprintf(o.errw, "%s: %v\n", src, err)
		return false
	}
	if o.steps {
		if j.Tree != "" || j.Postfix != "" {
			fmt.Fprintln(o.w)
		}
		fmt.Fprintln(o.w, r.Transcript)
		return true
	}
	fmt.Fprintln(o.w, r.Text)
	return true
}
