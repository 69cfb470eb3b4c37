package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yash-srivastava19/notex/internal/config"
	"github.com/yash-srivastava19/notex/internal/editor"
	"github.com/yash-srivastava19/notex/internal/share"
	"github.com/yash-srivastava19/notex/internal/ui"
)

const version = "0.1.0"

// cli carries the state shared by every command of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "notex [link]",
		Short: "Markdown notes in the terminal, shareable as self-contained links.",
		Long: `notex keeps a set of markdown notes and encodes the open one into a
compressed link. Anyone with the link gets the note back, no server needed.

  notex                                     open the editor
  notex 'https://notex.app/#BYUwNmD2Q'      open the editor on a shared note
  notex new "# Groceries"                   add a note from the command line`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         c.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/notex/config.json)")
	flags.String("data-dir", "", "directory notes are stored in")
	flags.String("backend", "", "storage backend: file or sqlite")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = c.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = c.v.BindPFlag("backend", flags.Lookup("backend"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.Flags().Bool("raw", false, "start in the raw view instead of the preview")

	root.AddCommand(
		c.newCmd(),
		c.listCmd(),
		c.showCmd(),
		c.shareCmd(),
		c.openCmd(),
		c.useCmd(),
		c.deleteCmd(),
		c.exportCmd(),
		c.importCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) runTUI(cmd *cobra.Command, args []string) error {
	var fragment string
	if len(args) == 1 {
		fragment = share.FragmentFromLink(args[0])
	}

	sched := ui.NewTickScheduler()
	s, err := c.open(fragment, sched)
	if err != nil {
		return err
	}
	defer s.Close()

	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		s.ctrl.SetMode(editor.Raw)
	}
	return ui.Run(cmd.Context(), s.ctrl, sched, s.bridge, ui.WithLogger(s.logger))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the notex version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "notex "+version)
		},
	}
}
