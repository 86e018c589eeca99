package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidepool-org/caretrack/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Scheduled jobs",
	Long:  "The jobs command is used to run the scheduled sweeps on demand",
}

var jobsReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile today's summaries",
	Long:  "The reconcile command recounts today's events of every patient and corrects drifted summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(func(reconciler *jobs.Reconciler) error { return runJob(reconciler) })
	},
}

var jobsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send the daily reports",
	Long:  "The report command sends today's activity report of every patient to their caregivers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(func(reporter *jobs.Reporter) error { return runJob(reporter) })
	},
}

func init() {
	jobsCmd.AddCommand(jobsReconcileCmd)
	jobsCmd.AddCommand(jobsReportCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJob(job jobs.Job) error {
	result, err := job.Run(context.TODO())
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: %d patients, %d updated, %d skipped, %d failed\n",
		job.Name(), result.Date, result.Patients, result.Updated, result.Skipped, result.Failed)
	return nil
}
