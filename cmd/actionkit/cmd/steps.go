package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sekia-ai/actionkit/pkg/core"
)

// readValue resolves a value argument. "-" reads stdin with one trailing
// newline removed. With asJSON the text is decoded so that objects and
// arrays are re-encoded compactly with sorted keys.
func readValue(cmd *cobra.Command, arg string, asJSON bool) (any, error) {
	text := arg
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	}
	if !asJSON {
		return text, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json value: %w", err)
	}
	return v, nil
}

func newSetOutputCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "set-output <name> <value|->",
		Short: "Set a step output",
		Long: `Writes the output to the file named by GITHUB_OUTPUT, or emits a
set-output workflow command when that variable is unset.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args[1], asJSON)
			if err != nil {
				return err
			}
			return actionFor(cmd).SetOutput(args[0], value)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "decode the value as JSON")
	return cmd
}

func newSaveStateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "save-state <name> <value|->",
		Short: "Save state for the post step of this action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args[1], asJSON)
			if err != nil {
				return err
			}
			return actionFor(cmd).SaveState(args[0], value)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "decode the value as JSON")
	return cmd
}

func newGetStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-state <name>",
		Short: "Print state saved by an earlier step of this action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), actionFor(cmd).GetState(args[0]))
			return err
		},
	}
}

func newExportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "export <name> <value|->",
		Short: "Export an environment variable for later steps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args[1], asJSON)
			if err != nil {
				return err
			}
			return actionFor(cmd).ExportVariable(args[0], value)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "decode the value as JSON")
	return cmd
}

func newAddPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-path <dir>",
		Short: "Prepend a directory to PATH for later steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return actionFor(cmd).AddPath(args[0])
		},
	}
}

func newAddMaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-mask <value>",
		Short: "Mask a value in the job log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return actionFor(cmd).SetSecret(args[0])
		},
	}
}

func newInputCmd() *cobra.Command {
	var (
		opts      core.InputOptions
		multiline bool
		boolean   bool
	)

	cmd := &cobra.Command{
		Use:   "input <name>",
		Short: "Print an action input",
		Long: `Prints the value of INPUT_<NAME>. With --multiline each non-empty line
is printed on its own line. With --bool the input must be one of
true/True/TRUE/false/False/FALSE.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := actionFor(cmd)
			out := cmd.OutOrStdout()
			switch {
			case boolean:
				v, err := a.GetBooleanInput(args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
			case multiline:
				lines, err := a.GetMultilineInput(args[0], opts)
				if err != nil {
					return err
				}
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
			default:
				v, err := a.GetInput(args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Required, "required", false, "fail when the input is empty")
	cmd.Flags().BoolVar(&opts.PreserveWhitespace, "keep-whitespace", false, "do not trim surrounding whitespace")
	cmd.Flags().BoolVar(&multiline, "multiline", false, "split the input into lines")
	cmd.Flags().BoolVar(&boolean, "bool", false, "parse the input as a YAML 1.2 core boolean")
	cmd.MarkFlagsMutuallyExclusive("multiline", "bool")
	return cmd
}

func newAnnotationCmd(level string) *cobra.Command {
	var props core.AnnotationProperties
	var line, endLine, col, endCol int

	cmd := &cobra.Command{
		Use:   level + " <message>",
		Short: fmt.Sprintf("Create a%s %s annotation", article(level), level),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Positions are sent only when given, so --line 0 still emits line=0.
			flags := cmd.Flags()
			if flags.Changed("line") {
				props.StartLine = &line
			}
			if flags.Changed("end-line") {
				props.EndLine = &endLine
			}
			if flags.Changed("col") {
				props.StartColumn = &col
			}
			if flags.Changed("end-column") {
				props.EndColumn = &endCol
			}

			a := actionFor(cmd)
			switch level {
			case "notice":
				return a.Notice(args[0], props)
			case "warning":
				return a.Warning(args[0], props)
			default:
				return a.Error(args[0], props)
			}
		},
	}

	cmd.Flags().StringVar(&props.Title, "title", "", "annotation title")
	cmd.Flags().StringVar(&props.File, "file", "", "file the annotation refers to")
	cmd.Flags().IntVar(&line, "line", 0, "start line")
	cmd.Flags().IntVar(&endLine, "end-line", 0, "end line")
	cmd.Flags().IntVar(&col, "col", 0, "start column")
	cmd.Flags().IntVar(&endCol, "end-column", 0, "end column")
	return cmd
}

func article(word string) string {
	if strings.ContainsRune("aeiou", rune(word[0])) {
		return "n"
	}
	return ""
}

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug <message>",
		Short: "Write a debug message, shown when step debug logging is on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return actionFor(cmd).Debug(args[0])
		},
	}
}

func newEchoCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "echo <on|off>",
		Short:     "Turn echoing of workflow commands on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return actionFor(cmd).SetCommandEcho(args[0] == "on")
		},
	}
}

func newFailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fail <message>",
		Short: "Report an error and exit with a failure code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := actionFor(cmd)
			if err := a.SetFailed(args[0]); err != nil {
				return err
			}
			return exitWith(int(a.ExitCode()))
		},
	}
}

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Fold log lines into an expandable group",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start <title>",
		Short: "Begin a log group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return actionFor(cmd).StartGroup(args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "End the current log group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return actionFor(cmd).EndGroup()
		},
	})

	return cmd
}

func newIDTokenCmd() *cobra.Command {
	var (
		audience string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "id-token",
		Short: "Request an OIDC ID token for the job",
		Long: `Requests an ID token from the runner's token endpoint. The token is
masked and printed, or stored as a step output with --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := actionFor(cmd)
			token, err := a.GetIDToken(cmd.Context(), audience)
			if err != nil {
				return err
			}
			if output != "" {
				return a.SetOutput(output, token)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&audience, "audience", "", "token audience")
	cmd.Flags().StringVar(&output, "output", "", "store the token in this step output instead of printing it")
	return cmd
}
