package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ratio1/postdesk/internal/prefs"
	"github.com/Ratio1/postdesk/pkg/postdesk"
	"github.com/Ratio1/postdesk/pkg/posts"
)

// clientFlags are shared by the one-shot post commands.
type clientFlags struct {
	baseURL string
	asJSON  bool
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Posts API base URL (default: saved apiBaseUrl, then $"+postdesk.EnvAPIURL+")")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON")
}

type postFields struct {
	title, content, author, date string
}

func (f *postFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "post title")
	cmd.Flags().StringVar(&f.content, "content", "", "post content")
	cmd.Flags().StringVar(&f.author, "author", "", "post author (default \""+posts.DefaultAuthor+"\")")
	cmd.Flags().StringVar(&f.date, "date", "", "post date, omitted when empty")
}

func (f postFields) payload() posts.Payload {
	return posts.NewPayload(f.title, f.content, f.author, f.date)
}

func (a *app) postCmds() []*cobra.Command {
	var listFlags, getFlags, createFlags, updateFlags, deleteFlags clientFlags
	var createFields, updateFields postFields

	list := &cobra.Command{
		Use:   "list",
		Short: "List all posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context(), listFlags.baseURL)
			if err != nil {
				return err
			}
			all, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			if listFlags.asJSON {
				return writeJSON(cmd.OutOrStdout(), all)
			}
			return writeTable(cmd.OutOrStdout(), all)
		},
	}
	listFlags.register(list)

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context(), getFlags.baseURL)
			if err != nil {
				return err
			}
			p, err := client.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writePost(cmd.OutOrStdout(), p, getFlags.asJSON)
		},
	}
	getFlags.register(get)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Example: `  postdesk create --title "Hello" --content "First words" --date 2024-05-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context(), createFlags.baseURL)
			if err != nil {
				return err
			}
			p, err := client.Create(cmd.Context(), createFields.payload())
			if err != nil {
				return err
			}
			return writePost(cmd.OutOrStdout(), p, createFlags.asJSON)
		},
	}
	createFlags.register(create)
	createFields.register(create)

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace every field of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context(), updateFlags.baseURL)
			if err != nil {
				return err
			}
			p, err := client.Update(cmd.Context(), id, updateFields.payload())
			if err != nil {
				return err
			}
			return writePost(cmd.OutOrStdout(), p, updateFlags.asJSON)
		},
	}
	updateFlags.register(update)
	updateFields.register(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context(), deleteFlags.baseURL)
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if deleteFlags.asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"deleted": id})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted post %d\n", id)
			return err
		},
	}
	deleteFlags.register(del)

	return []*cobra.Command{list, get, create, update, del}
}

// client resolves the API to talk to: the --base-url flag, then the saved
// apiBaseUrl, then the environment (which falls back to the in-memory mock).
func (a *app) client(ctx context.Context, baseURL string) (*posts.Client, error) {
	opts := a.httpOptions(nil)
	if baseURL == "" {
		saved, err := a.savedBaseURL(ctx)
		if err != nil {
			return nil, err
		}
		baseURL = saved
	}
	if baseURL != "" {
		a.logger.Debug("using base url", zap.String("base_url", baseURL))
		return posts.New(baseURL, opts...)
	}

	client, mode, err := postdesk.NewFromEnv(opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("client from environment", zap.String("mode", mode))
	return client, nil
}

func (a *app) savedBaseURL(ctx context.Context) (string, error) {
	store, err := prefs.Open(ctx, a.cfg.Prefs)
	if err != nil {
		return "", err
	}
	defer store.Close()
	v, _, err := store.Get(ctx, prefs.KeyAPIBaseURL)
	return v, err
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", raw)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePost(w io.Writer, p *posts.Post, asJSON bool) error {
	if asJSON {
		return writeJSON(w, p)
	}
	return writeTable(w, []posts.Post{*p})
}

func writeTable(w io.Writer, list []posts.Post) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tDATE\tCONTENT")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Author, p.Date, p.Content)
	}
	return tw.Flush()
}
