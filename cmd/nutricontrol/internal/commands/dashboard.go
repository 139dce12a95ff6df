package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/nutricontrol/nutricontrol/internal/clinical"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
)

// DashboardCmd prints today's overview.
type DashboardCmd struct{}

func (d *DashboardCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require(navigation.DashboardPath); err != nil {
		return err
	}

	stats, err := a.api.Dashboard.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	today, err := a.api.Dashboard.TodayConsultations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load today's consultations: %w", err)
	}

	out := globals.stdout()
	fmt.Fprintf(out, "Patients: %d  Today: %d  This month: %d\n",
		stats.TotalPatients, stats.ConsultsToday, stats.ConsultsThisMonth)
	if stats.NextConsultation != "" {
		fmt.Fprintf(out, "Next consultation: %s\n", stats.NextConsultation)
	}
	fmt.Fprintln(out)

	if len(today) == 0 {
		fmt.Fprintln(out, "No consultations today.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPATIENT\tGOAL")
	for _, c := range today {
		initials := c.Initials
		if initials == "" {
			initials = clinical.Initials(c.PatientName)
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\n", c.Time, initials, c.PatientName, c.Goal)
	}
	return w.Flush()
}

// ReportCmd downloads a PDF report.
type ReportCmd struct {
	Kind   string `arg:"" enum:"consultation,patient" help:"Report kind (consultation or patient)"`
	ID     int64  `arg:"" help:"Consultation or patient ID"`
	Output string `help:"Output file" short:"o" type:"path"`
}

func (r *ReportCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	download := a.api.Reports.ConsultationPDF
	dest := consultationDest(r.ID) + "/relatorio"
	if r.Kind == "patient" {
		download = a.api.Reports.PatientPDF
		dest = patientDest(r.ID) + "/relatorio"
	}
	if err := a.require(dest); err != nil {
		return err
	}

	pdf, err := download(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("failed to download report: %w", err)
	}

	output := r.Output
	if output == "" {
		output = "relatorio-" + r.Kind + "-" + strconv.FormatInt(r.ID, 10) + ".pdf"
	}
	if err := os.WriteFile(output, pdf, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	abs, _ := filepath.Abs(output)
	fmt.Fprintf(globals.stdout(), "Saved %s (%d bytes)\n", abs, len(pdf))
	return nil
}
