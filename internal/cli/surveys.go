package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/models"
	"employeesurvey/survey-client/internal/surveys"
)

func newSurveysCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surveys",
		Short: "List, create, assign and answer surveys",
	}
	cmd.AddCommand(
		newSurveysListCommand(e),
		newSurveysCreateCommand(e),
		newSurveysAssignCommand(e),
		newSurveysRespondCommand(e),
		newSurveysResultsCommand(e),
		newSurveysReportCommand(e),
	)
	return cmd
}

func newSurveysListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List surveys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleUnknown); err != nil {
				return err
			}
			list, err := e.app.Surveys.ListSurveys(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(e.out(), "No surveys available.")
				return nil
			}
			w := newTable(e.out())
			fmt.Fprintln(w, "ID\tTITLE\tQUESTIONS\tPUBLISHED")
			for _, s := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Title, e.p.Sprintf("%d", len(s.Questions)), yesNo(s.Published))
			}
			return w.Flush()
		},
	}
}

func newSurveysCreateCommand(e *env) *cobra.Command {
	var title string
	var questions []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a survey (admin)",
		Long: "Create a survey. Each --question is TEXT or TYPE:TEXT where TYPE is\n" +
			"text_input, rating_5 or yes_no.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleAdmin); err != nil {
				return err
			}
			in := models.NewSurvey{Title: title}
			for _, raw := range questions {
				in.Questions = append(in.Questions, parseQuestion(raw))
			}
			created, err := e.app.Surveys.CreateSurvey(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out(), "Created survey %d: %s\n", created.ID, created.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "survey title")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question as TEXT or TYPE:TEXT (repeatable)")
	return cmd
}

// parseQuestion reads TYPE:TEXT when the prefix is a known type and treats
// anything else as free text.
func parseQuestion(raw string) models.Question {
	if typ, text, ok := strings.Cut(raw, ":"); ok {
		qt := models.QuestionType(strings.TrimSpace(typ))
		if qt.Valid() {
			return models.Question{Text: strings.TrimSpace(text), Type: qt}
		}
	}
	return models.Question{Text: strings.TrimSpace(raw), Type: models.QuestionTextInput}
}

func newSurveysAssignCommand(e *env) *cobra.Command {
	var surveyID int
	var users string
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a survey to employees (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleAdmin); err != nil {
				return err
			}
			ack, err := e.app.Surveys.AssignSurvey(cmd.Context(), models.Assignment{
				SurveyID: surveyID,
				UserIDs:  surveys.ParseUserIDs(users),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out(), ack.Detail)
			return nil
		},
	}
	cmd.Flags().IntVarP(&surveyID, "survey", "s", 0, "survey id")
	cmd.Flags().StringVar(&users, "users", "", "comma-separated employee user ids")
	return cmd
}

func newSurveysRespondCommand(e *env) *cobra.Command {
	var surveyID int
	var answers []string
	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Answer an assigned survey",
		Long:  "Answer an assigned survey. Pass one --answer qN=VALUE per question.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleUnknown); err != nil {
				return err
			}
			if surveyID <= 0 {
				return apiclient.Invalid("survey", "must be a positive integer")
			}
			list, err := e.app.Surveys.ListSurveys(cmd.Context())
			if err != nil {
				return err
			}
			var target *models.Survey
			for i := range list {
				if list[i].ID == surveyID {
					target = &list[i]
					break
				}
			}
			if target == nil {
				return apiclient.Invalid("survey", "survey %d not found", surveyID)
			}

			sheet := surveys.NewAnswerSheet(*target)
			for _, raw := range answers {
				k, v, ok := strings.Cut(raw, "=")
				if !ok {
					return apiclient.Invalid("answer", "expected qN=VALUE, got %q", raw)
				}
				sheet[strings.TrimSpace(k)] = v
			}
			ack, err := e.app.Surveys.SubmitResponse(cmd.Context(), *target, sheet)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out(), ack.Detail)
			return nil
		},
	}
	cmd.Flags().IntVarP(&surveyID, "survey", "s", 0, "survey id")
	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "answer as qN=VALUE (repeatable)")
	return cmd
}

func newSurveysResultsCommand(e *env) *cobra.Command {
	var surveyID int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show responses and their annotations (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleAdmin); err != nil {
				return err
			}
			responses, err := e.app.Surveys.ListResponses(cmd.Context(), surveyID)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out(), e.p.Sprintf("%d responses", len(responses)))
			if len(responses) == 0 {
				return nil
			}

			w := newTable(e.out())
			fmt.Fprintln(w, "ID\tUSER\tSENTIMENT\tBURNOUT\tANSWERS")
			for _, r := range responses {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", r.ID, r.UserID, r.SentimentLabel(), r.BurnoutLabel(), formatAnswers(r.Answers))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return e.printDistribution(surveys.Summarize(responses))
		},
	}
	cmd.Flags().IntVarP(&surveyID, "survey", "s", 0, "survey id")
	return cmd
}

func newSurveysReportCommand(e *env) *cobra.Command {
	var surveyID int
	var withText bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the server-side analysis of a survey (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleAdmin); err != nil {
				return err
			}
			ctx := cmd.Context()
			dist, err := e.app.Surveys.Distribution(ctx, surveyID)
			if err != nil {
				return err
			}
			rows, err := e.app.Surveys.ReportTable(ctx, surveyID)
			if err != nil {
				return err
			}

			w := newTable(e.out())
			fmt.Fprintln(w, "RESPONSE\tUSER\tSENTIMENT\tBURNOUT")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ResponseID, r.Username, label(r.Sentiment), label(r.BurnoutRisk))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if err := e.printDistribution(dist); err != nil {
				return err
			}

			if withText {
				text, err := e.app.Surveys.TextData(ctx, surveyID)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out(), "\nAll answers:")
				fmt.Fprintln(e.out(), text.AllAnswersText)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&surveyID, "survey", "s", 0, "survey id")
	cmd.Flags().BoolVar(&withText, "text", false, "also print the concatenated free-text answers")
	return cmd
}

func (e *env) printDistribution(d models.Distribution) error {
	fmt.Fprintln(e.out(), e.p.Sprintf("\nTotal responses: %d", d.TotalResponses))
	w := newTable(e.out())
	fmt.Fprintln(w, "METRIC\tLABEL\tCOUNT\tSHARE")
	for _, b := range d.SentimentDistribution {
		fmt.Fprintln(w, e.p.Sprintf("sentiment\t%s\t%d\t%.1f%%", b.Label, b.Value, share(b.Value, d.TotalResponses)))
	}
	for _, b := range d.BurnoutRiskDistribution {
		fmt.Fprintln(w, e.p.Sprintf("burnout\t%s\t%d\t%.1f%%", b.Label, b.Value, share(b.Value, d.TotalResponses)))
	}
	return w.Flush()
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func formatAnswers(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+answers[k])
	}
	return strings.Join(parts, " ")
}

func label(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "unknown"
	}
	return strings.ToLower(*v)
}
