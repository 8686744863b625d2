package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/category"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
)

var analyzeTags string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Classify a single piece of text",
	Long: `Run sentiment scoring, tone detection and category mapping on ad-hoc
text without touching the feedback store.

Examples:
  feedbackwatch analyze "The mentor never replies to my doubts"
  feedbackwatch analyze --tags infrastructure "wifi keeps dropping"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTags, "tags", "", "Comma-separated category tags")
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeOutput is the JSON-serializable output for the analyze command.
type analyzeOutput struct {
	Text       string                        `json:"text"`
	Sentiment  feedback.SentimentAnnotation  `json:"sentiment_analysis"`
	Categories []feedback.CategoryAssignment `json:"category_mappings"`
	Primary    feedback.Category             `json:"primary_category"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.close()

	scorer, err := e.scorer()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	cats := category.NewMapper().Map(text, analyzeTags)
	res := analyzeOutput{
		Text:       text,
		Sentiment:  scorer.Annotate(text),
		Categories: cats,
		Primary:    category.PrimaryOf(cats),
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, res)
	}

	s := res.Sentiment
	fmt.Fprintln(out, output.Section("Analysis"))
	fmt.Fprintln(out, output.KV("Sentiment", output.SentimentStyle(s.Sentiment).Render(s.Sentiment.String())))
	fmt.Fprintln(out, output.KV("Confidence", fmt.Sprintf("%.3f", s.Confidence)))
	fmt.Fprintln(out, output.KV("Scores", fmt.Sprintf("+%.3f  =%.3f  -%.3f", s.Scores.Positive, s.Scores.Neutral, s.Scores.Negative)))
	if s.Tone != feedback.ToneNone {
		fmt.Fprintln(out, output.KV("Tone", s.Tone.String()))
	}
	fmt.Fprintln(out, output.KV("Primary category", res.Primary.DisplayName()))
	fmt.Fprintln(out)

	tbl := output.NewTable("Category", "Relevance", "Evidence")
	for _, c := range cats {
		tbl.AddRow(c.Category.DisplayName(), fmt.Sprintf("%.2f", c.Relevance), strings.Join(c.Evidence, ", "))
	}
	tbl.Fprint(out)
	return nil
}
