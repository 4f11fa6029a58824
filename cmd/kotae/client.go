package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
)

const defaultServerURL = "http://localhost:8000"

// clientFlags are shared by every command that talks to a running server.
type clientFlags struct {
	server  string
	output  string
	timeout time.Duration
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", defaultServerURL, "server URL")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Minute, "request timeout")
}

func (f *clientFlags) client() (*cli.Client, cli.OutputFormat, error) {
	format, err := cli.ParseOutputFormat(f.output)
	if err != nil {
		return nil, "", err
	}
	return cli.NewClient(f.server, f.timeout), format, nil
}

func uploadCmd() *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents to the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, format, err := f.client()
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				resp, err := c.Upload(cmd.Context(), path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}
				if err := cli.WriteUpload(cmd.OutOrStdout(), resp, format); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func askCmd() *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question about the uploaded documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := joinArgs(args)
			if question == "" {
				return errors.New("question cannot be empty")
			}
			c, format, err := f.client()
			if err != nil {
				return err
			}
			resp, err := c.Ask(cmd.Context(), question)
			if err != nil {
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), resp, format)
		},
	}
	f.register(cmd)
	return cmd
}

func searchCmd() *cobra.Command {
	var f clientFlags
	var topK int
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Show the segments retrieved for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := joinArgs(args)
			if query == "" {
				return errors.New("query cannot be empty")
			}
			c, format, err := f.client()
			if err != nil {
				return err
			}
			resp, err := c.Search(cmd.Context(), query, topK)
			if err != nil {
				return err
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
		},
	}
	f.register(cmd)
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of segments (0 = server default)")
	return cmd
}

func documentsCmd() *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List indexed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, format, err := f.client()
			if err != nil {
				return err
			}
			resp, err := c.Documents(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteDocuments(cmd.OutOrStdout(), resp, format)
		},
	}
	f.register(cmd)
	return cmd
}

func statusCmd() *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine counts, ceilings and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, format, err := f.client()
			if err != nil {
				return err
			}
			resp, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), resp, format)
		},
	}
	f.register(cmd)
	return cmd
}
