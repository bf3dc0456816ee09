package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PavanKumar06/stackoverflow-client/internal/aggregate"
	"github.com/PavanKumar06/stackoverflow-client/internal/compose"
	"github.com/PavanKumar06/stackoverflow-client/internal/config"
	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"github.com/PavanKumar06/stackoverflow-client/internal/logging"
	"github.com/PavanKumar06/stackoverflow-client/internal/nav"
	"github.com/PavanKumar06/stackoverflow-client/internal/session"
	"github.com/PavanKumar06/stackoverflow-client/internal/votes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "soclient",
		Short: "Live Q&A forum client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(listCommand(), watchCommand(), askCommand(), answerCommand(), commentCommand(), voteCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("base-url", defaults.GetString("api.base_url"), "Backend API base URL")
	cmd.PersistentFlags().String("stream-url", defaults.GetString("api.stream_url"), "Backend event stream URL")
	cmd.PersistentFlags().String("username", "", "Forum username")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "api.base_url", "base-url")
	bindFlag(cmd, "api.stream_url", "stream-url")
	bindFlag(cmd, "user.name", "username")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func openSession(ctx context.Context) (*session.Session, *zap.Logger, error) {
	appConfig, err := config.LoadClient(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	username, err := forum.NewUsername(appConfig.Username)
	if err != nil {
		return nil, nil, err
	}
	liveSession, err := session.Open(ctx, session.Config{
		BaseURL:   appConfig.APIBaseURL,
		StreamURL: appConfig.StreamURL,
		Username:  username,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return liveSession, logger, nil
}

func listCommand() *cobra.Command {
	var search string
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List questions matching a search filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			liveSession, logger, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer liveSession.Close()
			defer logger.Sync() //nolint:errcheck

			machine := nav.NewMachine()
			page := machine.Page()
			if search != "" {
				page = machine.Submit(search)
			}
			if order != "" {
				parsed, err := forum.ParseOrder(order)
				if err != nil {
					return err
				}
				page = machine.SetOrder(parsed)
			}

			questions, err := liveSession.API.ListQuestions(ctx, page.Search, page.Order)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d)\n", page.Title, len(questions))
			for _, question := range questions {
				fmt.Printf("%s  [%d answers, %d views]  %s\n",
					question.ID, question.AnswerCount(), question.Views, question.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Free-text search; [tag] tokens filter by tag")
	cmd.Flags().StringVar(&order, "order", "", "Question order (newest, active, unanswered, mostViewed)")
	return cmd
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <question-id>",
		Short: "Watch a question and print live updates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			liveSession, logger, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer liveSession.Close()
			defer logger.Sync() //nolint:errcheck

			questionID, err := forum.NewQuestionID(args[0])
			if err != nil {
				return err
			}

			machine := nav.NewMachine()
			page := machine.ToAnswer(questionID.String())

			engine, err := aggregate.NewEngine(aggregate.EngineConfig{
				Fetcher:  liveSession.API,
				Bus:      liveSession.Bus,
				Username: liveSession.User.String(),
				Logger:   logger,
				OnChange: func(question forum.Question, tally votes.Tally) {
					fmt.Printf("%s  votes=%+d views=%d answers=%d\n",
						question.Title, tally.Count, question.Views, question.AnswerCount())
				},
			})
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Open(ctx, forum.QuestionID(page.QuestionID)); err != nil {
				// The view degrades to showing nothing rather than stale data.
				return err
			}

			select {
			case <-ctx.Done():
			case <-liveSession.Done():
			}
			return nil
		},
	}
}

func askCommand() *cobra.Command {
	var title string
	var text string
	var tags []string
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Post a new question",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			liveSession, logger, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer liveSession.Close()
			defer logger.Sync() //nolint:errcheck

			if err := compose.ValidateText(text); err != nil {
				return err
			}
			question, err := liveSession.API.CreateQuestion(ctx, title, text, tags)
			if err != nil {
				return err
			}
			fmt.Println(question.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Question title")
	cmd.Flags().StringVar(&text, "text", "", "Question body")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Question tags")
	return cmd
}

func answerCommand() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "answer <question-id>",
		Short: "Post an answer to a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			liveSession, logger, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer liveSession.Close()
			defer logger.Sync() //nolint:errcheck

			questionID, err := forum.NewQuestionID(args[0])
			if err != nil {
				return err
			}
			composer, err := compose.NewComposer(compose.ComposerConfig{
				Submitter: liveSession.API,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			answer, err := composer.PostAnswer(ctx, questionID, text)
			if err != nil {
				return err
			}
			fmt.Println(answer.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Answer body")
	return cmd
}

func commentCommand() *cobra.Command {
	var targetID string
	var targetKind string
	var text string
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Comment on a question or answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			liveSession, logger, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer liveSession.Close()
			defer logger.Sync() //nolint:errcheck

			composer, err := compose.NewComposer(compose.ComposerConfig{
				Submitter: liveSession.API,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			if _, err := composer.PostComment(ctx, targetID, forum.TargetKind(targetKind), text); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetID, "target-id", "", "Question or answer id")
	cmd.Flags().StringVar(&targetKind, "target-kind", "question", "Comment target kind (question or answer)")
	cmd.Flags().StringVar(&text, "text", "", "Comment body")
	return cmd
}

func voteCommand() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "vote <question-id>",
		Short: "Vote a question up or down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			liveSession, logger, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer liveSession.Close()
			defer logger.Sync() //nolint:errcheck

			questionID, err := forum.NewQuestionID(args[0])
			if err != nil {
				return err
			}
			result, err := liveSession.API.SubmitVote(ctx, questionID, !down)
			if err != nil {
				return err
			}
			tally := votes.DeriveFromSets(result.UpVotes, result.DownVotes, liveSession.User.String())
			fmt.Printf("votes=%+d\n", tally.Count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Vote down instead of up")
	return cmd
}
