package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yash-srivastava19/notex/internal/notes"
)

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every note to dir as markdown with YAML frontmatter.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			used := map[string]int{}
			count := 0
			for _, n := range s.ctrl.Notes() {
				doc, err := notes.BuildDocument(n)
				if err != nil {
					return fmt.Errorf("export %s: %w", n.ID, err)
				}
				slug := notes.Slug(n.Name)
				used[slug]++
				if used[slug] > 1 {
					slug = fmt.Sprintf("%s-%d", slug, used[slug])
				}
				path := filepath.Join(dir, slug+".md")
				if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
					return err
				}
				count++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d notes to %s\n", count, dir)
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Add every .md file in dir as a note.",
		Long: `Reads markdown files, with or without the frontmatter export writes.
Notes whose id is already taken get a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(args[0])
			if err != nil {
				return err
			}

			var ns []*notes.Note
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
					continue
				}
				path := filepath.Join(args[0], e.Name())
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				info, err := e.Info()
				if err != nil {
					return err
				}
				n, err := notes.NoteFromDocument(string(raw), info.ModTime())
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				ns = append(ns, n)
			}

			s, err := c.open("", nil)
			if err != nil {
				return err
			}
			defer s.Close()

			added, err := s.ctrl.ImportNotes(ns)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d notes\n", added)
			return nil
		},
	}
}
