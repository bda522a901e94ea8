// ABOUTME: CLI commands for spaced-repetition review of past interactions
// ABOUTME: Cards are scheduled with SM-2 and rendered in a lipgloss box
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/models"
)

var (
	reviewQuestion string
	reviewAnswer   string
	reviewLimit    int
	reviewReveal   bool

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(64)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewReviewCmd creates the review command group
func NewReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Spaced-repetition review of past interactions",
		Long: `Turn interactions into review cards and practise them.

Cards are scheduled with SM-2: rate recall from 0 (blackout) to 5
(perfect). Ratings below 3 send the card back to a one day interval.`,
	}

	cmd.AddCommand(newReviewAddCmd())
	cmd.AddCommand(newReviewNextCmd())
	cmd.AddCommand(newReviewRateCmd())
	cmd.AddCommand(newReviewDueCmd())

	return cmd
}

func newReviewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <interaction-id>",
		Short: "Create a review card from an interaction",
		Long: `Create a review card from an interaction. An interaction has at most
one card; adding again returns the existing card.

The question defaults to the selected text and the answer to the
AI response.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			in, err := store.Interactions().Get(args[0])
			if err != nil {
				return fmt.Errorf("finding interaction: %w", err)
			}
			if in == nil {
				return fmt.Errorf("interaction %q not found", args[0])
			}

			question, answer := reviewQuestion, reviewAnswer
			if question == "" {
				question = in.SelectedText
			}
			if answer == "" {
				answer = in.Response
			}

			card, err := store.ReviewCards().Create(models.NewReviewCard{
				InteractionID: in.ID,
				Question:      question,
				Answer:        answer,
			})
			if err != nil {
				return fmt.Errorf("creating card: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), card)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Card %s due %s\n", card.ID, formatMillis(card.NextReviewAt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewQuestion, "question", "", "Card question")
	cmd.Flags().StringVar(&reviewAnswer, "answer", "", "Card answer")
	return cmd
}

func newReviewNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next card due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			now := store.Now()
			card, err := store.ReviewCards().Next(now)
			if err != nil {
				return fmt.Errorf("loading next card: %w", err)
			}
			due, err := store.ReviewCards().CountDue(now)
			if err != nil {
				return fmt.Errorf("counting due cards: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"card": card, "due": due})
			}
			if card == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due. Well read!")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderCard(card, reviewReveal))
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("%d card(s) due · rate with: marginalia review rate %s <0-5>", due, card.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reviewReveal, "reveal", false, "Show the answer")
	return cmd
}

func newReviewRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <card-id> <quality>",
		Short: "Rate recall of a card (0-5) and reschedule it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quality must be a number 0-5, got %q", args[1])
			}

			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			card, err := store.ReviewCards().Review(args[0], quality)
			if err != nil {
				return fmt.Errorf("rating card: %w", err)
			}
			if card == nil {
				return fmt.Errorf("card %q not found", args[0])
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), card)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Next review %s (interval %s, ease %.2f)\n",
					formatMillis(card.NextReviewAt),
					english.Plural(card.IntervalDays, "day", "days"),
					card.EaseFactor)
			}
			return nil
		},
	}
}

func newReviewDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(reviewLimit, "limit"); err != nil {
				return err
			}

			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cards, err := store.ReviewCards().ListDue(store.Now(), reviewLimit)
			if err != nil {
				return fmt.Errorf("listing due cards: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), cards)
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "DUE\tREVIEWS\tQUESTION\tID\n")
			for _, c := range cards {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", formatMillis(c.NextReviewAt), c.ReviewCount, truncate(c.Question, 50), c.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&reviewLimit, "limit", 20, "Maximum cards to list")
	return cmd
}

func renderCard(card *models.ReviewCard, reveal bool) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Q") + "  " + card.Question)
	if reveal {
		b.WriteString("\n\n" + labelStyle.Render("A") + "  " + card.Answer)
	}
	b.WriteString("\n\n" + dimStyle.Render(fmt.Sprintf("reviewed %s · due %s",
		english.Plural(card.ReviewCount, "time", "times"),
		humanize.Time(time.UnixMilli(card.NextReviewAt)))))
	return cardStyle.Render(b.String())
}
