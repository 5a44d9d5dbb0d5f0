// Package main provides flashctl, an operator CLI for card sources and stored progress.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vytor/vocabflash/internal/cards"
	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/csvparse"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/query"
	"github.com/vytor/vocabflash/internal/source"
	"github.com/vytor/vocabflash/internal/storage"
)

// fetchOptions holds the persistent flags shared by every subcommand.
type fetchOptions struct {
	bust     bool
	identity string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flashctl",
		Short:         "Inspect vocabulary sources and manage study progress",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := config.Load()
			logger.SetDefault(logger.New(
				logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
				logger.WithOutput(cmd.ErrOrStderr()),
			))
		},
	}
	opts := &fetchOptions{}
	rootCmd.PersistentFlags().BoolVar(&opts.bust, "bust", false, "bypass HTTP caches when fetching")
	rootCmd.PersistentFlags().StringVar(&opts.identity, "identity", "", "card identity for rows without an id: composite or positional (default: CARD_IDENTITY)")

	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newDueCmd(opts))
	rootCmd.AddCommand(newResetCmd())
	return rootCmd
}

func newInspectCmd(opts *fetchOptions) *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "inspect <url|path>",
		Short: "Fetch a source and summarise its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspectCmd(cmd, args, opts, asCSV)
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print the normalized card table as CSV")
	return cmd
}

func newDueCmd(opts *fetchOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due <url>",
		Short: "Count the cards due today for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDueCmd(cmd, args, opts)
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <url>",
		Short: "Forget all stored progress for a source",
		Args:  cobra.ExactArgs(1),
		RunE:  runResetCmd,
	}
}

func runInspectCmd(cmd *cobra.Command, args []string, opts *fetchOptions, asCSV bool) error {
	cfg := config.Load()
	cs, err := loadCards(commandContext(cmd), cfg, opts, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asCSV {
		_, err := io.WriteString(out, csvparse.Format(cardRows(cs)))
		return err
	}
	printSummary(out, cs)
	return nil
}

func runDueCmd(cmd *cobra.Command, args []string, opts *fetchOptions) error {
	cfg := config.Load()
	ctx := commandContext(cmd)

	cs, err := loadCards(ctx, cfg, opts, args[0])
	if err != nil {
		return err
	}

	st, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open progress store: %w", err)
	}
	defer st.Close()

	book, err := st.Progress.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	today := flashcard.Today(time.Now())
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d cards due on %s\n", query.CountDue(cs, book, today), len(cs), today)
	return nil
}

func runResetCmd(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open progress store: %w", err)
	}
	defer st.Close()

	if err := st.Progress.Reset(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "progress reset for %s\n", args[0])
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loadCards(ctx context.Context, cfg config.Config, opts *fetchOptions, src string) ([]models.Card, error) {
	text, err := source.New(cfg.FetchTimeout, source.WithLocalFiles()).Fetch(ctx, src, opts.bust)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	identity := cfg.CardIdentity
	if opts.identity != "" {
		identity = opts.identity
	}
	return cards.Map(csvparse.Parse(text), cards.Options{Identity: cards.ParseIdentity(identity)}), nil
}

var cardColumns = []string{"id", "deck", "lesson", "article", "french", "english", "sentence", "labels", "tags", "pron", "notes"}

func cardRows(cs []models.Card) [][]string {
	rows := make([][]string, 0, len(cs)+1)
	rows = append(rows, cardColumns)
	for _, c := range cs {
		rows = append(rows, []string{c.ID, c.Deck, c.Lesson, c.Article, c.French, c.English, c.Sentence, c.Labels, c.Tags, c.Pron, c.Notes})
	}
	return rows
}

func printSummary(w io.Writer, cs []models.Card) {
	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s %d\n", bold.Sprint("cards:"), len(cs))

	perDeck := map[string]int{}
	for _, c := range cs {
		perDeck[c.Deck]++
	}
	decks := make([]string, 0, len(perDeck))
	for d := range perDeck {
		decks = append(decks, d)
	}
	sort.Strings(decks)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("DECK"), bold.Sprint("CARDS"))
	for _, d := range decks {
		name := d
		if name == "" {
			name = "(no deck)"
		}
		tbl.AddRow(name, perDeck[d])
	}
	fmt.Fprintln(w, tbl)

	facets := cards.Collect(cs)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("lessons:"), strings.Join(facets.Lessons, ", "))
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("labels:"), strings.Join(facets.Labels, ", "))
}
