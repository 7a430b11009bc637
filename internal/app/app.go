package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wikilinks/internal/appcore"
	"wikilinks/internal/cli"
	"wikilinks/internal/config"
	"wikilinks/internal/sink"
	"wikilinks/internal/version"
)

// errUsage marks failures that should exit with the usage code.
var errUsage = errors.New("usage")

// NewRootCommand builds the wikilinks command tree. The exit code of the
// command that ran is stored in *code.
func NewRootCommand(code *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "wikilinks",
		Short: "Extract the page link graph from a compressed MediaWiki dump",
		Long: `Extract the page link graph from a compressed MediaWiki dump.

wikilinks streams a bzip2, gzip or zstd XML export through a bounded
pipeline and writes one JSON line per article: the page title mapped to
its distinct outbound links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExtractCommand(code), newVersionCommand())
	return root
}

func newExtractCommand(code *int) *cobra.Command {
	v := cli.NewViper()
	cmd := &cobra.Command{
		Use:   "extract [archive]",
		Short: "Stream an archive into a JSONL link graph",
		Long: `Stream an archive into a JSONL link graph.

The archive may also be set with WIKILINKS_ARCHIVE or the 'archive' key of
wikilinks.yaml; '-' reads stdin. Each flag has a WIKILINKS_* environment
variable and a config file key.`,
		Example: `  wikilinks extract enwiki-latest-pages-articles.xml.bz2 -o links.jsonl
  wikilinks extract dump.xml.gz -o - --log-format json | head
  bzcat dump.xml.bz2 | wikilinks extract - -o links.jsonl.zst --workers 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return extract(cmd, v, args, code)
		},
	}
	cli.BindExtractFlags(cmd, v)
	return cmd
}

func extract(cmd *cobra.Command, v *viper.Viper, args []string, code *int) error {
	if len(args) == 1 {
		v.Set("archive", args[0])
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	}
	cfg, err := config.Read(v)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	*code = appcore.Run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wikilinks version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wikilinks version %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
			return err
		},
	}
}

// RunContext runs the CLI with argv and returns the process exit code.
// With no arguments it prints help and succeeds.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	code := appcore.ExitOK
	root := NewRootCommand(&code)
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if len(argv) == 0 {
		if err := root.Help(); err != nil && !sink.IsBrokenPipe(err) {
			_, _ = fmt.Fprintln(stderr, err)
			return appcore.ExitFailure
		}
		return appcore.ExitOK
	}

	if err := root.ExecuteContext(parent); err != nil {
		if sink.IsBrokenPipe(err) {
			return appcore.ExitOK
		}
		_, _ = fmt.Fprintln(stderr, "error:", err)
		if !errors.Is(err, errUsage) {
			// cobra reports unknown commands, flags and bad args here
			_, _ = fmt.Fprintln(stderr, "Run 'wikilinks --help' for usage.")
		}
		return appcore.ExitUsage
	}
	return code
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
