package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/pagegrid/internal/app"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/livesync"
	"github.com/specialistvlad/pagegrid/internal/model"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/spf13/cobra"
)

func newCheckCommand(opts *options) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Discover every organism and report all descriptor problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd, func(c *app.Config) {
				if dir != "" {
					c.DescriptorsDir = dir
				}
			})
			if err != nil {
				return err
			}
			a, err := opts.newApp(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d organisms OK\n", a.Registry().Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Check descriptors in this directory instead of the built-in index. (env PAGEGRID_DESCRIPTORS_DIR)")
	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	var (
		capability string
		category   string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the organism palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd, nil)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cfg)
			if err != nil {
				return err
			}

			var filters []registry.Filter
			if capability != "" {
				filters = append(filters, registry.WithCapability(capability))
			}
			if category != "" {
				filters = append(filters, registry.WithCategory(category))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				list := []model.Metadata{}
				for md := range a.Registry().List(filters...) {
					list = append(list, md)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tVERSION\tCAPABILITIES")
			for md := range a.Registry().List(filters...) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", md.ID, md.DisplayName, md.Category, md.Version, strings.Join(md.Capabilities, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&capability, "capability", "", "Only list organisms with this capability tag.")
	cmd.Flags().StringVar(&category, "category", "", "Only list organisms of this category.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the palette as JSON.")
	return cmd
}

func newRenderCommand(opts *options) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "render ORGANISM",
		Short: "Render an organism with its default config or a JSON config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, nil)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cfg)
			if err != nil {
				return err
			}

			var config []byte
			switch configPath {
			case "":
			case "-":
				config, err = io.ReadAll(cmd.InOrStdin())
			default:
				config, err = os.ReadFile(configPath)
			}
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("reading config: %v", err)}
			}

			html, err := a.Render().Preview(a.Context(), args[0], config)
			var verr *schema.ValidationError
			switch {
			case errors.As(err, &verr):
				msg := verr.Error()
				for _, fe := range verr.Fields {
					msg += fmt.Sprintf("\n  - %s [%s]", fe.Error(), fe.Code)
				}
				return &ExitError{Code: ExitFailure, Message: msg}
			case err != nil:
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "JSON config file, or '-' for stdin.")
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	var addr, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the palette, editor and page rendering API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd, func(c *app.Config) {
				if cmd.Flags().Changed("addr") {
					c.Addr = addr
				}
				if cmd.Flags().Changed("db") {
					c.DBPath = dbPath
				}
			})
			if err != nil {
				return err
			}
			a, err := opts.newApp(cfg)
			if err != nil {
				return err
			}
			if err := a.Serve(cmd.Context()); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address. (env PAGEGRID_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for pages; empty keeps pages in memory. (env PAGEGRID_DB_PATH)")
	return cmd
}

func newFollowCommand(opts *options) *cobra.Command {
	var (
		url      string
		insecure bool
	)
	cmd := &cobra.Command{
		Use:   "follow PAGE",
		Short: "Print the live editor events of a page as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, nil)
			if err != nil {
				return err
			}
			logger := cfg.NewLogger(opts.logW)
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			enc := json.NewEncoder(cmd.OutOrStdout())
			err = livesync.Follow(ctx, livesync.FollowConfig{
				URL:                url,
				PageID:             args[0],
				InsecureSkipVerify: insecure,
			}, func(ev editor.Event) {
				if err := enc.Encode(ev); err != nil {
					logger.Error("Writing event failed.", "error", err)
				}
			})
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/socket.io/", "socket.io endpoint of a running `pagegrid serve`.")
	cmd.Flags().BoolVar(&insecure, "insecure-skip-verify", false, "Skip TLS certificate verification.")
	return cmd
}
