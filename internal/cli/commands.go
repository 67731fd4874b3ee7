package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/careerguide/careerguide/internal/cache"
	"github.com/careerguide/careerguide/internal/coach"
	"github.com/careerguide/careerguide/internal/config"
	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/extract"
	"github.com/careerguide/careerguide/internal/output"
	"github.com/careerguide/careerguide/internal/recommend"
	"github.com/careerguide/careerguide/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func analyzeCmd() *cobra.Command {
	var goal, jdPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <resume>",
		Short: "Analyze a resume against a target role",
		Long: `Analyze a resume (.pdf, .docx or text) against a target role. Without
--goal the role is detected from the job description given with --jd.

Example:
  careerguide analyze resume.pdf --goal "Data Analyst"
  careerguide analyze resume.docx --jd job.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resumeText, err := extract.FromFile(args[0])
			if err != nil {
				return err
			}
			var jdText string
			if jdPath != "" {
				if jdText, err = extract.FromFile(jdPath); err != nil {
					return err
				}
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			p, err := rt.pipeline()
			if err != nil {
				return err
			}

			report, err := p.Run(cmd.Context(), recommend.Input{ResumeText: resumeText, JDText: jdText, Goal: goal})
			if err != nil {
				return err
			}

			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.FormatReport(report))
			return nil
		},
	}

	cmd.Flags().StringVarP(&goal, "goal", "g", "", "target role from the skill map")
	cmd.Flags().StringVar(&jdPath, "jd", "", "job description file")
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "JSON output")
	return cmd
}

func generateCmd() *cobra.Command {
	var purposeFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generate <entity>",
		Short: "Generate content for a skill or role",
		Long: fmt.Sprintf(`Generate structured content for a skill or role, using the cache when possible.

Purposes: %s

Example:
  careerguide generate "machine learning" --purpose learning_path
  careerguide generate "DevOps Engineer" --purpose role_description --json`, purposeList()),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose, err := content.ParsePurpose(purposeFlag)
			if err != nil {
				return err
			}
			entity := strings.Join(args, " ")

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := rt.generateWithProgress(cmd.Context(), entity, purpose, showProgress(jsonOut))
			if err != nil {
				return err
			}

			if viper.GetBool("verbose") {
				path, _ := rt.store.Path(entity, purpose)
				fmt.Fprintf(os.Stderr, "Cached at: %s\n", path)
			}
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), payload)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.FormatPayload(payload))
			return nil
		},
	}

	cmd.Flags().StringVarP(&purposeFlag, "purpose", "p", string(content.LearningAndProjects), "content purpose")
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "JSON output")
	return cmd
}

func interviewCmd() *cobra.Command {
	var role, summaryPath, userID string
	var questions int

	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a mock interview in the terminal",
		Long: `Run a mock interview for a role. Each answer is scored and the average
role fit is reported at the end. Type "quit" to stop early.

Example:
  careerguide interview --role "Backend Developer" --summary summary.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "" || summaryPath == "" {
				return fmt.Errorf("--role and --summary are required")
			}
			summary, err := extract.FromFile(summaryPath)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, iv, store, err := openCoach(cfg, questions)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := iv.Reset(ctx, userID); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			lastAnswer := ""
			for n := 1; ; n++ {
				question, err := iv.NextQuestion(ctx, userID, summary, role, lastAnswer)
				if err != nil {
					return err
				}
				if question == coach.CompletedMessage {
					fmt.Fprintln(out, question)
					break
				}

				fmt.Fprintf(out, "\nQ%d. %s\n", n, question)
				answer, ok := readAnswer(in, out)
				if !ok {
					break
				}

				eval, err := iv.Score(ctx, userID, answer, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s\n", eval.Text)
				lastAnswer = answer
			}

			result, err := iv.FinalResult(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", "", "target role")
	cmd.Flags().StringVarP(&summaryPath, "summary", "s", "", "resume summary file")
	cmd.Flags().StringVar(&userID, "user", "local", "session user id")
	cmd.Flags().IntVarP(&questions, "questions", "n", 0, "number of questions (default from config)")
	return cmd
}

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration (OpenRouter then Gemini, rotation after
10 to 15 successes, local Ollama models for the coach) to:
  ~/.config/careerguide/config.toml (Linux/others)
  ~/Library/Application Support/careerguide/config.toml (macOS)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if path == "" {
				path = config.ConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration saved to %s\n\n", path)
			fmt.Fprintln(out, "Set your API keys, for example in .env:")
			for _, p := range config.DefaultProviders() {
				fmt.Fprintf(out, "  %s=...\n", p.APIKeyEnv)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config")
	return cmd
}

func providersCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers in rotation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			statuses := output.ProviderStatuses(cfg, cfg.ProviderNames())
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), statuses)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Providers (tried in this order):")
			fmt.Fprintln(out, output.FormatProviders(statuses))
			fmt.Fprintf(out, "\nThe primary moves to the back after %d-%d consecutive successes.\n",
				cfg.Rotation.Min, cfg.Rotation.Max)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "JSON output")
	return cmd
}

func testConfigCmd() *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "test-config",
		Short: "Validate provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Testing providers...")
			fmt.Fprintln(out)

			hasErrors := false
			for _, p := range cfg.Providers {
				fmt.Fprintf(out, "Testing %s (%s %s)... ", p.Name, p.Kind, p.Model)

				provider, err := CreateProvider(cmd.Context(), p)
				if err != nil {
					fmt.Fprintf(out, "❌ %v\n", err)
					hasErrors = true
					continue
				}
				if ping {
					_, err := provider.Generate(cmd.Context(), content.Request{
						Entity:    "ping",
						Prompt:    "Reply with the single word OK.",
						MaxTokens: 5,
					})
					if err != nil {
						fmt.Fprintf(out, "❌ %v\n", err)
						hasErrors = true
						continue
					}
				}
				fmt.Fprintln(out, "✓")
			}

			if hasErrors {
				return fmt.Errorf("some providers have configuration issues")
			}
			fmt.Fprintln(out, "\n✓ All providers configured correctly")
			return nil
		},
	}
	cmd.Flags().BoolVar(&ping, "ping", false, "send a tiny request to each provider")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the content cache",
	}
	cmd.AddCommand(cacheStatsCmd(), clearCacheCmd())
	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			stats, err := store.GetStats()
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.FormatCacheStats(stats, store.Root()))
			return nil
		},
	}
}

func clearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached content",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			removed, err := store.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached entries\n", removed)
			return nil
		},
	}
}

func openCache() (*cache.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.ResolvedCacheDir(), nil), nil
}

// openCoach opens the session store and the local chat model shared by the
// career coach and the interviewer
func openCoach(cfg *config.Config, maxQuestions int) (*coach.Coach, *coach.Interviewer, *session.Store, error) {
	store, err := session.Open(cfg.ResolvedSessionDB())
	if err != nil {
		return nil, nil, nil, err
	}
	chat, err := CreateChatter(cfg)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	if maxQuestions < 1 {
		maxQuestions = cfg.Coach.MaxQuestions
	}
	iv := coach.NewInterviewer(chat, store, coach.InterviewOptions{
		QuestionModel: cfg.Coach.QuestionModel,
		ScoreModel:    cfg.Coach.ScoreModel,
		MaxQuestions:  maxQuestions,
		PassScore:     cfg.Coach.PassScore,
	})
	return coach.New(chat, store, cfg.Coach.CareerModel, nil), iv, store, nil
}

// showProgress reports whether a spinner may be drawn. Quiet and debug modes
// come from viper so CAREERGUIDE_QUIET and CAREERGUIDE_DEBUG apply as well.
func showProgress(jsonOut bool) bool {
	return !jsonOut && !viper.GetBool("quiet") && !viper.GetBool("debug")
}

// readAnswer prompts until a non-blank line is read. It reports false on EOF
// or when the user types "quit".
func readAnswer(in *bufio.Scanner, out io.Writer) (string, bool) {
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			return "", false
		}
		answer := strings.TrimSpace(in.Text())
		if strings.EqualFold(answer, "quit") {
			return "", false
		}
		if answer != "" {
			return answer, true
		}
	}
}

func purposeList() string {
	names := make([]string, len(content.Purposes))
	for i, p := range content.Purposes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
