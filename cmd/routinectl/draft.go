package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/routinesharing/internal/services"
)

var (
	entryDay      string
	entryTime     string
	entryText     string
	entryPassword string
	importTitle   string
	submitTitle   string
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Build the set of routines to upload",
}

var draftAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a day/time entry; one routine per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.ctrl.AddEntry(cmd.Context(), entryDay, entryTime, entryText, entryPassword); err != nil {
				return err
			}
			renderDraft(cmd.OutOrStdout(), a.ctrl.Draft(), a.ctrl.State().Replacing)
			return nil
		})
	},
}

var draftRmCmd = &cobra.Command{
	Use:   "rm <n>",
	Short: "Remove entry n as numbered by draft list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("entry number must be an integer: %w", err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			if _, err := a.ctrl.Dispatch(cmd.Context(), services.Intent{Kind: services.IntentRemoveDraftEntry, Index: n - 1}); err != nil {
				return err
			}
			renderDraft(cmd.OutOrStdout(), a.ctrl.Draft(), a.ctrl.State().Replacing)
			return nil
		})
	},
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			renderDraft(cmd.OutOrStdout(), a.ctrl.Draft(), a.ctrl.State().Replacing)
			return nil
		})
	},
}

var draftTitleCmd = &cobra.Command{
	Use:   "title <title>",
	Short: "Set the title used on submit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return a.ctrl.SetTitle(cmd.Context(), args[0])
		})
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.ctrl.ClearDraft(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared.")
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load an exported bundle into the draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read bundle: %w", err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.ctrl.Import(cmd.Context(), data, entryPassword, importTitle); err != nil {
				return err
			}
			renderDraft(cmd.OutOrStdout(), a.ctrl.Draft(), a.ctrl.State().Replacing)
			return nil
		})
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Upload the draft as one session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}
			result, err := a.ctrl.Submit(cmd.Context(), submitTitle)
			renderBatch(cmd.OutOrStdout(), result)
			return err
		})
	},
}

func init() {
	draftAddCmd.Flags().StringVar(&entryDay, "day", "", "Weekday, e.g. 월요일 or monday")
	draftAddCmd.Flags().StringVar(&entryTime, "time", "", "Time of day, e.g. 아침 or morning")
	draftAddCmd.Flags().StringVar(&entryText, "text", "", "Routines, one per line")
	draftAddCmd.Flags().StringVar(&entryPassword, "password", "", "4-digit password for the whole upload")
	importCmd.Flags().StringVar(&entryPassword, "password", "", "4-digit password for the imported upload")
	importCmd.Flags().StringVar(&importTitle, "title", "", "Title of the imported upload")
	submitCmd.Flags().StringVar(&submitTitle, "title", "", "Title; defaults to the draft title")

	draftCmd.AddCommand(draftAddCmd, draftRmCmd, draftListCmd, draftTitleCmd, draftClearCmd)
	rootCmd.AddCommand(draftCmd, importCmd, submitCmd)
}
