package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/yash-srivastava19/notex/internal/editor"
	"github.com/yash-srivastava19/notex/internal/notes"
	"github.com/yash-srivastava19/notex/internal/render"
	"github.com/yash-srivastava19/notex/internal/templates"
)

func (c *cli) newCmd() *cobra.Command {
	var tmpl string

	cmd := &cobra.Command{
		Use:     "new [text]",
		Aliases: []string{"n"},
		Short:   "Add a note and make it the active one.",
		Long: `Adds a note from the arguments, or from standard input when there are none.
With --template the arguments are the title filled into the template.`,
		Example: `  notex new "# Groceries"
  echo "# Standup" | notex new
  notex new --template meeting "Weekly sync"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch {
			case tmpl != "":
				if !templates.Exists(tmpl) {
					return fmt.Errorf("unknown template %q (available: %s)", tmpl, strings.Join(templates.Names, ", "))
				}
				content = templates.Get(tmpl, strings.Join(args, " "), time.Now().Format("2006-01-02"))
			case len(args) > 0:
				content = strings.Join(args, " ")
			default:
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(b)
			}

			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.ctrl.NewNote(content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", n.ID, n.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tmpl, "template", "t", "", "template: "+strings.Join(templates.Names, ", "))
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes, most recently changed first.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			all := s.ctrl.Notes()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}

			active := s.ctrl.ActiveID()
			for _, n := range all {
				marker := " "
				if n.ID == active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-36s  %s  %s\n", marker, n.ID, n.UpdatedAt.Local().Format("2006-01-02 15:04"), n.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var (
		asHTML bool
		raw    bool
		width  int
	)

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print a note, the active one by default.",
		Long: `Prints a note rendered for the terminal. --raw prints the markdown
source with syntax highlighting. --html prints the rendered HTML, or with
--raw the highlighted source as HTML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := pick(s.ctrl, args)
			if err != nil {
				return err
			}

			var out string
			switch {
			case asHTML && raw:
				out, err = render.HighlightHTML(n.Content, render.DefaultGrammar)
			case asHTML:
				out, err = render.HTML(n.Content)
			case raw:
				out, err = render.HighlightTerminal(n.Content, render.DefaultGrammar, s.cfg.HighlightStyle)
			default:
				out, err = render.NewTerminal(s.cfg.Style, s.cfg.HighlightStyle).Preview(n.Content, width)
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", n.ID, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print HTML")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "wrap width for terminal output")
	return cmd
}

func (c *cli) shareCmd() *cobra.Command {
	var copyLink bool

	cmd := &cobra.Command{
		Use:   "share [id]",
		Short: "Print the share link of a note, the active one by default.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := pick(s.ctrl, args)
			if err != nil {
				return err
			}
			link, err := s.ctrl.ShareLink(n.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			if copyLink {
				if err := clipboard.WriteAll(link); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyLink, "copy", "c", false, "also copy the link to the clipboard")
	return cmd
}

func (c *cli) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <link>",
		Short: "Import the note carried by a share link and make it active.",
		Long: `Decodes a share link. If a note with the same content exists it becomes
active, otherwise a new note is added.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, created, err := s.ctrl.ImportLink(args[0])
			if errors.Is(err, editor.ErrNothingToImport) {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			verb := "opened"
			if created {
				verb = "imported"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", verb, n.ID, n.Name)
			return nil
		},
	}
}

func (c *cli) useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Make a note the active one. A unique id prefix is enough.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.ctrl.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := s.ctrl.Open(n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active %s  %s\n", n.ID, n.Name)
			return nil
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note. A unique id prefix is enough.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.ctrl.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := s.ctrl.Delete(n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s  %s\n", n.ID, n.Name)
			return nil
		},
	}
}

// pick resolves the optional id argument, defaulting to the active note.
func pick(ctrl *editor.Controller, args []string) (*notes.Note, error) {
	if len(args) == 1 {
		return ctrl.Resolve(args[0])
	}
	n, ok := ctrl.Active()
	if !ok {
		return nil, fmt.Errorf("no active note: %w", notes.ErrNotFound)
	}
	return n, nil
}
