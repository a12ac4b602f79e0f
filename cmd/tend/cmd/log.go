package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tendapp/tend/internal/app"
	"github.com/tendapp/tend/internal/config"
	"github.com/tendapp/tend/internal/model"
)

func LogCmd(cfg *config.Config) *cobra.Command {
	var mood string
	var answers []string

	cmd := &cobra.Command{
		Use:   "log <goal-id>",
		Short: "Log a reflection against a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			responses, err := parseAnswers(answers)
			if err != nil {
				return err
			}

			return withApp(cfg, func(a *app.App) error {
				r := a.Store.SaveReflection(model.Reflection{
					GoalID:    args[0],
					Responses: responses,
					Mood:      mood,
				})
				fmt.Println(r.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mood, "mood", "", "great|good|okay|low|rough")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "action=response pair (repeatable, in prompt order)")
	return cmd
}

func parseAnswers(pairs []string) ([]model.ActionResponse, error) {
	responses := make([]model.ActionResponse, 0, len(pairs))
	for _, p := range pairs {
		action, response, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid answer %q, expected action=response", p)
		}
		responses = append(responses, model.ActionResponse{Action: action, Response: response})
	}
	return responses, nil
}
