package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidepool-org/caretrack/summary"
)

var summariesRebuildParams = struct {
	UserId    string
	PatientId string
	Date      string
}{}

var summariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "Daily activity summaries",
	Long:  "The summaries command is used to manage daily activity summaries",
}

var summariesRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recount the events of a daily summary",
	Long:  "The rebuild command recounts the event counters of a daily summary from the stored activity records",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(rebuildSummary) },
}

func init() {
	summariesRebuildCmd.Flags().StringVar(&summariesRebuildParams.UserId, "user-id", "", "Id of the caregiver owning the patient")
	summariesRebuildCmd.Flags().StringVar(&summariesRebuildParams.PatientId, "patient-id", "", "Id of the patient")
	summariesRebuildCmd.Flags().StringVar(&summariesRebuildParams.Date, "date", "", "Day to rebuild formatted as yyyy-MM-dd, defaults to today")
	_ = summariesRebuildCmd.MarkFlagRequired("user-id")
	_ = summariesRebuildCmd.MarkFlagRequired("patient-id")

	summariesCmd.AddCommand(summariesRebuildCmd)
	rootCmd.AddCommand(summariesCmd)
}

func rebuildSummary(service summary.Service) error {
	result, err := service.Rebuild(context.TODO(), summariesRebuildParams.UserId, summary.RebuildRequest{
		PatientId: summariesRebuildParams.PatientId,
		Date:      summariesRebuildParams.Date,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
