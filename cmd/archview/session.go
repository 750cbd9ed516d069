package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"archview/internal/app"
	"archview/internal/archive"

	"github.com/spf13/cobra"
)

// passphraseEnv unlocks a protected identity without a prompt.
const passphraseEnv = "ARCHVIEW_KEY_PASSPHRASE"

// runSession authenticates, unlocks blob encryption, holds the session lock
// while fn runs and records the outcome.
func runSession(cmd *cobra.Command, command string, fn func(ctx context.Context, s *app.Session) error) error {
	return withApp(cmd, command, func(a *app.App) error {
		identity, err := authenticate(cmd, a)
		if err != nil {
			return err
		}
		if identity.PasswordChangeRequired {
			fmt.Fprintln(cmd.ErrOrStderr(), "Your password must be changed before the next login.")
		}

		if err := unlock(cmd, a); err != nil {
			return err
		}
		return a.RunSession(cmd.Context(), identity, fn)
	})
}

// authenticate logs in with --encoded-secret once, or prompts until the
// attempts are used up.
func authenticate(cmd *cobra.Command, a *app.App) (*archive.Identity, error) {
	user, _ := cmd.Flags().GetString("user")
	encoded, _ := cmd.Flags().GetString("encoded-secret")
	if user == "" {
		return nil, fmt.Errorf("--user is required")
	}

	if encoded != "" {
		res, err := a.Login(cmd.Context(), user, encoded, true)
		if err != nil {
			return nil, err
		}
		return res.Identity, nil
	}

	for {
		secretText, err := promptSecret(cmd, "Password for "+user)
		if err != nil {
			return nil, err
		}
		res, err := a.Login(cmd.Context(), user, secretText, false)
		if err == nil {
			return res.Identity, nil
		}

		var rejected *archive.RejectedError
		if errors.As(err, &rejected) && rejected.AttemptsLeft > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Login failed, %d attempt(s) left.\n", rejected.AttemptsLeft)
			continue
		}
		return nil, err
	}
}

func unlock(cmd *cobra.Command, a *app.App) error {
	protected, err := a.NeedsPassphrase()
	if err != nil {
		return err
	}
	var passphrase string
	if protected {
		passphrase = os.Getenv(passphraseEnv)
		if passphrase == "" {
			if passphrase, err = promptSecret(cmd, "Key passphrase"); err != nil {
				return err
			}
		}
	}
	return a.Unlock(passphrase)
}

func printNodes(w io.Writer, nodes []archive.NodeView) {
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for _, n := range nodes {
		mark := " "
		if n.Highlighted() {
			mark = "*"
		}
		image := strconv.Itoa(n.ImageID)
		if n.Sentinel {
			image += " (nodoc)"
		}
		fmt.Fprintf(w, "%s %-24s %-9s %s\timage %s\n", mark, n.ID, n.Kind(), n.Name, image)
	}
}

// printTree lists the nodes under nodeID. An unreachable catalog is shown as
// an empty tree with a warning.
func printTree(ctx context.Context, svc *archive.ArchiveService, nodeID string, stdout, stderr io.Writer) error {
	nodes, err := svc.Expand(ctx, nodeID)
	if errors.Is(err, archive.ErrCatalogUnavailable) {
		fmt.Fprintf(stderr, "warning: %v\n", err)
		nodes, err = nil, nil
	}
	if err != nil {
		return err
	}
	printNodes(stdout, nodes)
	return nil
}

var treeCmd = &cobra.Command{
	Use:   "tree [NODE_ID]",
	Short: "List the top-level buckets or the contents of one node",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID := archive.RootID
		if len(args) == 1 {
			nodeID = args[0]
		}
		return runSession(cmd, "Tree", func(ctx context.Context, s *app.Session) error {
			return printTree(ctx, s.Archive, nodeID, cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open DOC_ID|DOCUMENT_<id>",
	Short: "Materialize a document and print its local path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID := args[0]
		if docID, err := strconv.Atoi(nodeID); err == nil {
			nodeID = archive.DocumentID(docID)
		}
		reload, _ := cmd.Flags().GetBool("reload")

		return runSession(cmd, "Open", func(ctx context.Context, s *app.Session) error {
			doc, err := s.Archive.OpenDocument(ctx, nodeID, reload)
			if err != nil {
				return err
			}
			source := "cache"
			if doc.Fetched {
				source = "fetched"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", doc.LocalPath, doc.PreviewKind, doc.ContentType, source)
			return nil
		})
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images KEY...",
	Short: "Resolve image keys, reporting sentinel substitutions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := make([]int, 0, len(args))
		for _, arg := range args {
			k, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid image key %q", arg)
			}
			keys = append(keys, k)
		}

		return runSession(cmd, "Images", func(ctx context.Context, s *app.Session) error {
			images, err := s.Archive.ResolveImages(ctx, keys)
			if err != nil {
				return err
			}
			for _, k := range keys {
				state := "stored"
				if s.Archive.IsSentinel(images[k]) {
					state = "nodoc"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d bytes\t%s\n", k, len(images[k]), state)
			}
			return nil
		})
	},
}

func addSessionCommands(root *cobra.Command) {
	for _, c := range []*cobra.Command{treeCmd, openCmd, imagesCmd} {
		c.Flags().StringP("user", "u", "", "Login name")
		c.Flags().String("encoded-secret", "", "Already encoded secret, for non-interactive use")
		root.AddCommand(c)
	}
	openCmd.Flags().Bool("reload", false, "Fetch the document again even if cached")
}
