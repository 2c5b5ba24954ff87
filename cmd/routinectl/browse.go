package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
	"github.com/Lllllllleong/routinesharing/internal/services"
)

var (
	browseSort string
	browseDay  string
	browseTime string
	showAll    bool
	code       string
	exportOut  string
	exportDoc  string
	publish    bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List shared routine sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			opts := routines.ListOptions{Sort: a.defaultSort()}
			if browseSort != "" {
				sort, err := routines.ParseSortOrder(browseSort)
				if err != nil {
					return err
				}
				opts.Sort = sort
			}
			if browseDay != "" {
				day, ok := models.ParseWeekday(browseDay)
				if !ok {
					return &routines.ValidationError{Field: "day", Reason: fmt.Sprintf("unknown weekday %q", browseDay)}
				}
				opts.Day = day
			}
			if browseTime != "" {
				tt, ok := models.ParseTimeType(browseTime)
				if !ok {
					return &routines.ValidationError{Field: "time", Reason: fmt.Sprintf("unknown time of day %q", browseTime)}
				}
				opts.Time = tt
			}
			if err := a.ctrl.Refresh(cmd.Context(), opts); err != nil {
				return err
			}
			summaries, err := a.ctrl.Summaries(cmd.Context())
			if err != nil {
				return err
			}
			renderSummaries(cmd.OutOrStdout(), summaries)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show one session day by day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			out, err := a.ctrl.Dispatch(cmd.Context(), services.Intent{Kind: services.IntentViewSession, SessionKey: args[0]})
			if err != nil {
				return err
			}
			renderDetail(cmd.OutOrStdout(), *out.Detail, showAll)
			return nil
		})
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <session>",
	Short: "Like a session (once per day)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			out, err := a.ctrl.Dispatch(cmd.Context(), services.Intent{Kind: services.IntentLikeSession, SessionKey: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Notice)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Delete a session with its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			out, err := a.ctrl.Dispatch(cmd.Context(), services.Intent{Kind: services.IntentDeleteSession, SessionKey: args[0], Code: code})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d documents.\n", out.Deleted)
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <session>",
	Short: "Load a session into the draft; submit replaces it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			out, err := a.ctrl.Dispatch(cmd.Context(), services.Intent{Kind: services.IntentEditSession, SessionKey: args[0], Code: code})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Notice)
			renderDraft(cmd.OutOrStdout(), a.ctrl.Draft(), a.ctrl.State().Replacing)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [session]",
	Short: "Export a session or a single document as a bundle file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportDoc == "" && len(args) == 0 {
			return fmt.Errorf("a session key or --document is required")
		}
		return withApp(cmd.Context(), func(a *app) error {
			if publish {
				if len(args) == 0 {
					return fmt.Errorf("--publish needs a session key")
				}
				if err := a.refresh(cmd.Context()); err != nil {
					return err
				}
				s, ok := routines.FindSession(a.ctrl.State().Sessions, args[0])
				if !ok {
					return routines.ErrSessionNotFound
				}
				uri, _, err := a.svc.Publish(cmd.Context(), s)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), uri)
				return nil
			}

			intent := services.Intent{Kind: services.IntentDownloadSingleDocument, DocumentID: exportDoc}
			if exportDoc == "" {
				intent = services.Intent{Kind: services.IntentDownloadSession, SessionKey: args[0]}
			}
			out, err := a.ctrl.Dispatch(cmd.Context(), intent)
			if err != nil {
				return err
			}
			path := filepath.Join(exportOut, out.Export.Filename)
			if err := os.WriteFile(path, out.Export.Data, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		})
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseSort, "sort", "", "recent or popular")
	browseCmd.Flags().StringVar(&browseDay, "day", "", "Only documents for this weekday")
	browseCmd.Flags().StringVar(&browseTime, "time", "", "Only documents for this time of day")
	showCmd.Flags().BoolVar(&showAll, "all", false, "Do not fold long days")
	deleteCmd.Flags().StringVar(&code, "code", "", "4-digit session password")
	editCmd.Flags().StringVar(&code, "code", "", "4-digit session password")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Directory to write the bundle to")
	exportCmd.Flags().StringVar(&exportDoc, "document", "", "Export only this document")
	exportCmd.Flags().BoolVar(&publish, "publish", false, "Store the bundle in the export bucket instead")
	_ = deleteCmd.MarkFlagRequired("code")
	_ = editCmd.MarkFlagRequired("code")

	rootCmd.AddCommand(browseCmd, showCmd, likeCmd, deleteCmd, editCmd, exportCmd)
}
