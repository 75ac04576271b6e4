package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pbaille/wanderword/internal/api"
	"github.com/pbaille/wanderword/internal/archive"
	"github.com/pbaille/wanderword/internal/config"
	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/playback"
	"github.com/pbaille/wanderword/internal/render"
	"github.com/pbaille/wanderword/internal/session"
	"github.com/pbaille/wanderword/internal/stats"
	"github.com/pbaille/wanderword/internal/tui"
)

func traceCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trace [word]",
		Short: "Trace a word and print its journey",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := strings.Join(args, " ")

			e, err := openEnv(cmd, flags, false)
			if err != nil {
				return err
			}
			defer e.Close()

			j, err := e.resolver.Resolve(cmd.Context(), word)
			if err != nil {
				return fmt.Errorf("%s: %w", session.FailureMessage(err), err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.JourneyResponse{Journey: j, Stats: stats.Summarize(j)})
			}
			printJourney(out, j)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the journey as JSON")
	return cmd
}

func printJourney(w io.Writer, j domain.Journey) {
	s := stats.Summarize(j)

	fmt.Fprintf(w, "%s  [%s]\n", j.Word, j.Source)
	if j.CurrentMeaning != "" {
		fmt.Fprintf(w, "%s\n", j.CurrentMeaning)
	}
	fmt.Fprintf(w, "\nOrigin: %s (%s) \"%s\", %s, %s\n",
		j.Origin.Word, j.Origin.Language, j.Origin.Meaning, j.Origin.Location.Name, j.Origin.Century)
	for i, wp := range j.Waypoints {
		fmt.Fprintf(w, "  %d. %-14s %-12s %-18s %s (%s)\n",
			i+1, wp.Word, wp.Language, wp.Century, wp.Location.Name, wp.RouteType)
	}
	if j.Narrative != "" {
		fmt.Fprintf(w, "\n%s\n", j.Narrative)
	}
	if j.FunFact != "" {
		fmt.Fprintf(w, "\nFun fact: %s\n", j.FunFact)
	}
	fmt.Fprintf(w, "\nLanguages: %d  Centuries: %s  Route: %s  Distance: %.0f km\n",
		s.Languages, s.CenturySpan, s.Route, s.DistanceKm)
}

func playCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "play [word]",
		Short: "Open the terminal player",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, flags, true)
			if err != nil {
				return err
			}
			defer e.Close()

			updates, notify := tui.StateChannel()
			seq := playback.New(playback.WithNotify(notify))
			sess := session.New(e.resolver, seq,
				session.WithAutoplayDelay(e.cfg.AutoplayDelay),
				session.WithLogger(e.logger),
			)
			model := tui.New(cmd.Context(), sess, updates,
				tui.WithFavorites(e.store),
				tui.WithInitialWord(strings.Join(args, " ")),
			)

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			seq.Clear()
			return err
		},
	}
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, flags, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			server := api.New(e.resolver, e.archive, e.store, api.Options{
				Addr:      addr,
				PublicURL: e.cfg.Server.PublicURL,
				Logger:    e.logger,
			})
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func cacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the journey cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached words",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cache is empty. Use 'wanderword trace' to generate a journey.")
				return nil
			}
			for _, c := range entries {
				fmt.Fprintf(out, "%-24s %s\n", c.Word, c.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [word]",
		Short: "Remove a cached word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.Delete(cmd.Context(), domain.NormalizeWord(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", domain.NormalizeWord(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached word",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached journeys\n", n)
			return nil
		},
	})

	return cmd
}

func favCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favourite words",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [word]",
		Short: "Star a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.store.AddFavorite(cmd.Context(), domain.NormalizeWord(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [word]",
		Short: "Unstar a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.store.RemoveFavorite(cmd.Context(), domain.NormalizeWord(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favourite words",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			words, err := e.store.ListFavorites(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(words) == 0 {
				fmt.Fprintln(out, "No favourites yet. Press f in the player to star a word.")
				return nil
			}
			for _, w := range words {
				fmt.Fprintln(out, w)
			}
			return nil
		},
	})

	return cmd
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [word]",
		Short: "Write a standalone HTML page for a word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, flags, false)
			if err != nil {
				return err
			}
			defer e.Close()

			j, err := e.resolver.Resolve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			opts := render.Options{ShareURL: render.ShareURL(e.cfg.Server.PublicURL, j.Word)}

			if output == "" || output == "-" {
				return render.Page(cmd.OutOrStdout(), j, opts)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := render.Page(f, j, opts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "List the built-in words",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, w := range archive.Default().Words() {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			wrote, err := config.EnsureFile(flags.configPath)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flags.configPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", flags.configPath)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), flags.configPath)
		},
	})

	return cmd
}
