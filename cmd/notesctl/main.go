// Command notesctl is a small terminal client for the notes API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexusnotes/nexus-notes/internal/client"
	"github.com/nexusnotes/nexus-notes/internal/document"
)

type options struct {
	server    string
	tokenFile string
	timeout   time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Manage your notes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	defaultServer := os.Getenv("NOTES_API_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "API base URL")
	root.PersistentFlags().StringVar(&opts.tokenFile, "token-file", "", "where the session token is kept (default: user config dir)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "per-request timeout")

	root.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newListCmd(opts),
		newNewCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func (o *options) client() (*client.Client, error) {
	path := o.tokenFile
	if path == "" {
		p, err := client.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return client.New(o.server, client.NewFileTokenStore(path), client.WithTimeout(o.timeout)), nil
}

// session returns a started session and fails when nobody is signed in.
func (o *options) session(ctx context.Context) (*client.Session, error) {
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	s := client.NewSession(c)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	if s.State() != client.StateReady {
		return nil, errors.New("not signed in, run `notesctl login` first")
	}
	return s, nil
}

func newRegisterCmd(opts *options) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			s := client.NewSession(c)
			if err := s.Register(cmd.Context(), name, email, password); err != nil {
				return err
			}
			user, _ := s.User()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password, googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or a Google ID token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			s := client.NewSession(c)

			if googleToken != "" {
				err = s.GoogleLogin(cmd.Context(), googleToken)
			} else {
				err = s.Login(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}

			user, _ := s.User()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s <%s>, %d notes\n", user.Name, user.Email, len(s.Notes()))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&googleToken, "google-id-token", "", "Google ID token")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			return client.NewSession(c).Logout()
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently updated first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUPDATED\tTITLE\tPREVIEW")
			for _, n := range s.Notes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.UpdatedAt.Local().Format(time.DateTime), n.Title, preview(n.Content))
			}
			return tw.Flush()
		},
	}
}

func newNewCmd(opts *options) *cobra.Command {
	var title, text string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}

			s.Deselect()
			note, err := s.Save(cmd.Context(), title, paragraphs(text))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q\n", note.ID, note.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&text, "text", "", "note body, one paragraph per line")
	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	var title, text string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or text of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			titleSet, textSet := cmd.Flags().Changed("title"), cmd.Flags().Changed("text")
			if !titleSet && !textSet {
				return errors.New("nothing to change, pass --title and/or --text")
			}

			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Select(args[0]); err != nil {
				return fmt.Errorf("note %s: %w", args[0], err)
			}
			current, _ := s.Selected()

			if !titleSet {
				title = current.Title
			}
			content := current.Content
			if textSet {
				content = paragraphs(text)
			}

			note, err := s.Save(cmd.Context(), title, content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %q\n", note.ID, note.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&text, "text", "", "new body, one paragraph per line")
	return cmd
}

// paragraphs turns each line of text into a paragraph. Empty text gives a
// nil document, which the server stores as its default.
func paragraphs(text string) document.Document {
	if text == "" {
		return nil
	}
	var doc document.Document
	for _, line := range strings.Split(text, "\n") {
		doc = append(doc, document.NewParagraph(&document.Text{Text: line}))
	}
	return doc
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Select(args[0]); err != nil {
				return fmt.Errorf("note %s: %w", args[0], err)
			}
			if err := s.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s\n", h.Status, h.Timestamp)
			return nil
		},
	}
}

func preview(doc document.Document) string {
	text := strings.Join(strings.Fields(document.PlainText(doc)), " ")
	if r := []rune(text); len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return text
}
