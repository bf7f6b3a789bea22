// Command folioctl is the admin client for the folio API: sign in, manage
// portfolio content and upload media from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/client"
)

type app struct {
	apiURL      string
	sessionPath string
	out         io.Writer
	in          io.Reader

	api *client.Client
}

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "folioctl",
		Short:         "Manage portfolio content through the folio API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect()
		},
	}

	defaultURL := os.Getenv("FOLIO_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", defaultURL, "API base URL (env FOLIO_API_URL)")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", os.Getenv("FOLIO_SESSION"), "session file (env FOLIO_SESSION)")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.statusCommand(),
		a.listCommand(),
		a.getCommand(),
		a.createCommand(),
		a.editCommand(),
		a.deleteCommand(),
		a.uploadCommand(),
		a.snapshotCommand(),
	)
	return root
}

// connect 恢复本地会话并构造 API 客户端，不访问服务端。
func (a *app) connect() error {
	path := a.sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return err
		}
		path = p
	}
	session := client.NewSession(path)
	if _, err := session.Restore(); err != nil {
		return err
	}
	a.api = client.New(a.apiURL, session)
	return nil
}

func (a *app) requireLogin() error {
	if a.api.Session().State() != client.StateAuthenticated {
		return fmt.Errorf("not signed in, run: folioctl login")
	}
	return nil
}

func formFor(resource string) (client.Form, error) {
	form, ok := client.FormFor(resource)
	if !ok {
		return client.Form{}, fmt.Errorf("unknown resource %q (one of: %s, profile)", resource, strings.Join(client.Resources(), ", "))
	}
	return form, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
