package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/rebound/internal/adapters/table"
	service "github.com/okian/rebound/internal/app"
	"github.com/okian/rebound/internal/domain/model"
)

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a generated, scored sample roster as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size, _ := cmd.Flags().GetInt("size")
			seed, _ := cmd.Flags().GetInt64("seed")
			out, _ := cmd.Flags().GetString("out")
			if size <= 0 {
				return fmt.Errorf("--size must be positive, got %d", size)
			}

			svc := newLocalService(service.WithSampleSeed(seed), service.WithMaxRows(size))
			if _, err := svc.LoadSample(cmd.Context(), size); err != nil {
				return fmt.Errorf("generate sample: %w", err)
			}
			return writeRoster(cmd, out, svc.Students(cmd.Context()))
		},
	}
	cmd.Flags().Int("size", 20, "Number of students")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks a time-based seed)")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return cmd
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a roster table and write it back with dropout_risk and risk_level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")

			svc, err := loadRoster(cmd, in)
			if err != nil {
				return err
			}
			students := svc.Students(cmd.Context())
			if err := writeRoster(cmd, out, students); err != nil {
				return err
			}
			if out != "" && out != "-" {
				printSummary(cmd.OutOrStdout(), students)
			}
			return nil
		},
	}
	cmd.Flags().String("in", "-", "Input CSV (default stdin)")
	cmd.Flags().String("out", "", "Output CSV (default stdout)")
	return cmd
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a single assessment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in model.Assessment
			in.Grade, _ = cmd.Flags().GetFloat64("grade")
			in.AttendanceRate, _ = cmd.Flags().GetFloat64("attendance")
			in.PreviousFailures, _ = cmd.Flags().GetInt("failures")
			in.StudyHoursPerWeek, _ = cmd.Flags().GetFloat64("hours")

			res, err := newLocalService().Predict(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Verdict())
			return err
		},
	}
	cmd.Flags().Float64("grade", 0, "Grade, 0-100")
	cmd.Flags().Float64("attendance", 0, "Attendance rate, 0-1")
	cmd.Flags().Int("failures", 0, "Previous failures")
	cmd.Flags().Float64("hours", 0, "Study hours per week")
	for _, name := range []string{"grade", "attendance", "hours"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the skill-rebuilder plan for one student of a roster table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, _ := cmd.Flags().GetString("in")
			id, _ := cmd.Flags().GetInt64("id")
			completed, _ := cmd.Flags().GetInt("completed")
			if completed < 0 {
				return fmt.Errorf("--completed must not be negative, got %d", completed)
			}

			svc, err := loadRoster(cmd, in)
			if err != nil {
				return err
			}
			for i := 0; i < completed; i++ {
				if _, err := svc.MarkCompleted(cmd.Context(), id); err != nil {
					return err
				}
			}
			plan, err := svc.Plan(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), plan.Render())
			return err
		},
	}
	cmd.Flags().String("in", "-", "Input CSV (default stdin)")
	cmd.Flags().Int64("id", 0, "Student id")
	cmd.Flags().Int("completed", 0, "Modules already completed")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func loadRoster(cmd *cobra.Command, path string) (*service.Service, error) {
	src, closeIn, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	svc := newLocalService()
	if _, err := svc.Upload(cmd.Context(), src); err != nil {
		return nil, err
	}
	return svc, nil
}

func writeRoster(cmd *cobra.Command, path string, students []model.Student) error {
	w, closeOut, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := table.Write(w, students); err != nil {
		_ = closeOut()
		return fmt.Errorf("write roster: %w", err)
	}
	return closeOut()
}

func printSummary(w io.Writer, students []model.Student) {
	counts := make(map[model.RiskLevel]int, len(model.RiskLevels()))
	for _, s := range students {
		counts[s.RiskLevel]++
	}
	fmt.Fprintf(w, "Scored %d students: High %d, Medium %d, Low %d\n",
		len(students), counts[model.RiskHigh], counts[model.RiskMedium], counts[model.RiskLow])
}
