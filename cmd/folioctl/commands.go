package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"folio/internal/client"
)

// 终端检测与无回显读取，测试中替换。
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

func (a *app) loginCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(a.in)
			if username == "" {
				fmt.Fprint(a.out, "Username: ")
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			password, err := a.promptPassword(reader)
			if err != nil {
				return err
			}
			account, err := a.api.Login(commandContext(cmd), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", account.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	return cmd
}

// promptPassword 终端下不回显；管道输入时读取一行。
func (a *app) promptPassword(reader *bufio.Reader) (string, error) {
	fmt.Fprint(a.out, "Password: ")
	if f, ok := a.in.(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.api.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state and verify the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := a.api.Session()
			if session.State() != client.StateAuthenticated {
				fmt.Fprintln(a.out, "anonymous")
				return nil
			}
			account, err := a.api.Me(commandContext(cmd))
			if errors.Is(err, client.ErrUnauthorized) {
				fmt.Fprintln(a.out, "anonymous (session expired)")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "authenticated as %s\n", account.Username)
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	var skillType string
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List documents of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := formFor(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			if form.Resource == "profile" {
				doc, err := a.api.Profile(ctx)
				if err != nil {
					return err
				}
				return printDocument(a.out, doc)
			}
			var docs []client.Document
			if form.Resource == "skills" && skillType != "" {
				docs, err = a.api.ListSkillsOfType(ctx, skillType)
			} else {
				docs, err = a.api.List(ctx, form.Resource)
			}
			if err != nil {
				return err
			}
			return printTable(a.out, form, docs)
		},
	}
	cmd.Flags().StringVar(&skillType, "type", "", "skills only: tech, hardskill or softskill")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> [id]",
		Short: "Show one document as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := formFor(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			var doc client.Document
			if form.Resource == "profile" {
				doc, err = a.api.Profile(ctx)
			} else {
				if len(args) != 2 {
					return fmt.Errorf("missing id")
				}
				doc, err = a.api.Get(ctx, form.Resource, args[1])
			}
			if err != nil {
				return err
			}
			return printDocument(a.out, doc)
		},
	}
}

func (a *app) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <resource> field=value...",
		Short: "Create a document; image fields accept @path to upload a local file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			form, err := formFor(args[0])
			if err != nil {
				return err
			}
			doc, err := form.Parse(args[1:])
			if err != nil {
				return err
			}
			if err := form.Validate(doc); err != nil {
				return err
			}
			ctx := commandContext(cmd)
			if err := form.ResolveUploads(ctx, doc, a.api); err != nil {
				return err
			}

			var saved client.Document
			if form.Resource == "profile" {
				saved, err = a.api.UpdateProfile(ctx, doc)
			} else {
				saved, err = a.api.Create(ctx, form.Resource, doc)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s saved: %s\n", form.Label, saved.ID())
			return nil
		},
	}
}

// editCommand 读取当前文档，合并修改后整体替换。
func (a *app) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <resource> <id> field=value...",
		Short: "Edit a document (profile takes no id)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			form, err := formFor(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			id, assignments := "", args[1:]
			var current client.Document
			if form.Resource == "profile" {
				current, err = a.api.Profile(ctx)
			} else {
				id, assignments = args[1], args[2:]
				current, err = a.api.Current(ctx, form.Resource, id)
			}
			if err != nil {
				return err
			}
			if cid := current.ID(); cid != "" {
				id = cid
			}

			edits, err := form.Parse(assignments)
			if err != nil {
				return err
			}
			doc := client.Merge(current, edits)
			if err := form.Validate(doc); err != nil {
				return err
			}
			if err := form.ResolveUploads(ctx, doc, a.api); err != nil {
				return err
			}

			if form.Resource == "profile" {
				_, err = a.api.UpdateProfile(ctx, doc)
			} else {
				_, err = a.api.Replace(ctx, form.Resource, id, doc)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s updated\n", form.Label)
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a document after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			form, err := formFor(args[0])
			if err != nil {
				return err
			}
			if form.Resource == "profile" {
				return fmt.Errorf("the profile cannot be deleted")
			}
			if !yes && !confirm(bufio.NewReader(a.in), a.out, fmt.Sprintf("Delete %s %s?", strings.ToLower(form.Label), args[1])) {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			if err := a.api.Delete(commandContext(cmd), form.Resource, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s deleted\n", form.Label)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) uploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload or remove media",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "image <path>",
			Short: "Upload an image (max 5 MB)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				asset, err := a.api.UploadImage(commandContext(cmd), args[0])
				if err != nil {
					return err
				}
				return printAsset(a.out, asset)
			},
		},
		&cobra.Command{
			Use:   "document <path>",
			Short: "Upload a PDF (max 10 MB)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				asset, err := a.api.UploadDocument(commandContext(cmd), args[0])
				if err != nil {
					return err
				}
				return printAsset(a.out, asset)
			},
		},
		&cobra.Command{
			Use:   "rm <publicId>",
			Short: "Request removal of an uploaded file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				if err := a.api.DeleteMedia(commandContext(cmd), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Removal requested")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) snapshotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch every public section at once and summarise it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := client.FetchSnapshot(commandContext(cmd), a.api)
			return printSnapshot(a.out, snap)
		},
	}
}
