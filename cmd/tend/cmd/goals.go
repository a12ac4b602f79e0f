package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tendapp/tend/internal/app"
	"github.com/tendapp/tend/internal/config"
	"github.com/tendapp/tend/internal/model"
	"github.com/tendapp/tend/internal/store"
)

// withApp builds the app, runs fn, and closes it, which flushes any pending
// debounced save before the process exits.
func withApp(cfg *config.Config, fn func(a *app.App) error) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func ListCmd(cfg *config.Config) *cobra.Command {
	var search, filterName, sortName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals with optional search, filter and sort",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := store.ParseFilter(filterName)
			if err != nil {
				return err
			}
			sortBy, err := store.ParseSort(sortName)
			if err != nil {
				return err
			}

			return withApp(cfg, func(a *app.App) error {
				goals := a.Store.FilteredGoals(store.ListOptions{
					Search: search,
					Filter: filter,
					Sort:   sortBy,
				})
				for _, g := range goals {
					st := a.Store.DisplayStatusForGoal(g.ID)
					marker := " "
					if st.LoggedToday {
						marker = "✓"
					}
					archived := ""
					if g.Archived {
						archived = " (archived)"
					}
					fmt.Printf("%s %s  %s%s  %s %s\n", marker, shortID(g.ID), g.Intention, archived, st.ProgressLabel, st.MoodEmoji)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "substring match on intention text")
	cmd.Flags().StringVar(&filterName, "filter", "all", "all|active|archived|logged-today|not-logged-today|has-streak|no-streak|has-reminder|no-reminder")
	cmd.Flags().StringVar(&sortName, "sort", "manual", "manual|newest|oldest|alpha|alpha-desc|streak-high|streak-low|most-active|least-active")
	return cmd
}

func AddCmd(cfg *config.Config) *cobra.Command {
	var tags []string
	var reminder string

	cmd := &cobra.Command{
		Use:   "add <intention>",
		Short: "Create a new goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app.App) error {
				g := model.Goal{Intention: args[0], Tags: tags}
				if reminder != "" {
					g.ReminderAt = &reminder
				}
				g = a.Store.SaveGoal(g)
				fmt.Println(g.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tracking-option tags (repeatable)")
	cmd.Flags().StringVar(&reminder, "reminder", "", "daily reminder time, HH:MM")
	return cmd
}

func StatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <goal-id>",
		Short: "Show a goal's display status and reflection aggregates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app.App) error {
				id := args[0]
				st := a.Store.DisplayStatusForGoal(id)
				count := a.Store.ReflectionCountForGoal(id)

				fmt.Printf("logged today:  %v\n", st.LoggedToday)
				fmt.Printf("last logged:   %s\n", st.LastLogged)
				fmt.Printf("week progress: %s\n", st.ProgressLabel)
				fmt.Printf("reflections:   %d\n", count)
				if st.MoodEmoji != "" {
					fmt.Printf("mood:          %s\n", st.MoodEmoji)
				}
				return nil
			})
		},
	}
}

func ArchiveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <goal-id>",
		Short: "Archive a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app.App) error {
				a.Store.ArchiveGoal(args[0])
				return nil
			})
		},
	}
}

func RemoveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <goal-id>",
		Short: "Delete a goal and all its reflections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app.App) error {
				a.Store.DeleteGoal(args[0])
				return nil
			})
		},
	}
}

func DuplicateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "dup <goal-id>",
		Short: "Duplicate a goal with a fresh streak and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app.App) error {
				clone, ok := a.Store.DuplicateGoal(args[0])
				if !ok {
					return fmt.Errorf("goal not found: %s", args[0])
				}
				fmt.Println(clone.ID)
				return nil
			})
		},
	}
}

func MoveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a goal to a new position in the manual order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid from index: %s", args[0])
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid to index: %s", args[1])
			}

			return withApp(cfg, func(a *app.App) error {
				a.Store.ReorderGoals([]int{from}, to)
				return nil
			})
		},
	}
}
