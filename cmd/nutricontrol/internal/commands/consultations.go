package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/nutricontrol/nutricontrol/internal/clinical"
	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
)

// ConsultationsCmd manages consultations.
type ConsultationsCmd struct {
	List    ConsultationsListCmd    `cmd:"" help:"List consultations"`
	Get     ConsultationsGetCmd     `cmd:"" help:"Show a consultation"`
	Compare ConsultationsCompareCmd `cmd:"" help:"Compare two consultations of a patient"`
	Delete  ConsultationsDeleteCmd  `cmd:"" help:"Delete a consultation"`
}

type ConsultationsListCmd struct {
	Patient int64 `help:"Only consultations of this patient" short:"p"`
	JSON    bool  `help:"Print JSON"`
}

func (c *ConsultationsListCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	dest := navigation.Destination("/consultas")
	if c.Patient > 0 {
		dest = patientDest(c.Patient) + "/consultas"
	}
	if err := a.require(dest); err != nil {
		return err
	}

	var consultations []models.ConsultationSummary
	if c.Patient > 0 {
		consultations, err = a.api.Consultations.ListByPatient(ctx, c.Patient)
	} else {
		consultations, err = a.api.Consultations.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list consultations: %w", err)
	}

	if c.JSON {
		return printJSON(globals.stdout(), consultations)
	}
	printConsultations(globals.stdout(), consultations)
	return nil
}

type ConsultationsGetCmd struct {
	ID int64 `arg:"" help:"Consultation ID"`
}

func (c *ConsultationsGetCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require(consultationDest(c.ID)); err != nil {
		return err
	}

	detail, err := a.api.Consultations.Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get consultation %d: %w", c.ID, err)
	}
	return printJSON(globals.stdout(), detail)
}

type ConsultationsCompareCmd struct {
	Patient int64 `arg:"" help:"Patient ID"`
	Initial int64 `arg:"" help:"Initial consultation ID"`
	Final   int64 `arg:"" help:"Final consultation ID"`
	JSON    bool  `help:"Print JSON"`
}

func (c *ConsultationsCompareCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	dest := navigation.Destination("/consultas/comparar/" + strconv.FormatInt(c.Patient, 10))
	if err := a.require(dest); err != nil {
		return err
	}

	cmp, err := a.api.Consultations.Compare(ctx, c.Patient, c.Initial, c.Final)
	if err != nil {
		return fmt.Errorf("failed to compare consultations: %w", err)
	}

	if c.JSON {
		return printJSON(globals.stdout(), cmp)
	}

	w := tabwriter.NewWriter(globals.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\t%s\t%s\tDIFF\n", clinical.FormatDate(cmp.Initial.Date), clinical.FormatDate(cmp.Final.Date))
	row := func(label string, initial, final, diff *float64) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", label, formatValue(initial), formatValue(final), formatValue(diff))
	}
	var ia, fa models.PhysicalAssessment
	if cmp.Initial.Assessment != nil {
		ia = *cmp.Initial.Assessment
	}
	if cmp.Final.Assessment != nil {
		fa = *cmp.Final.Assessment
	}
	row("Weight (kg)", ia.Weight, fa.Weight, cmp.Differences.Weight)
	row("Body fat (%)", ia.BodyFatPercent, fa.BodyFatPercent, cmp.Differences.BodyFatPercent)
	row("Lean mass (kg)", ia.LeanMass, fa.LeanMass, cmp.Differences.LeanMass)
	row("Fat mass (kg)", ia.FatMass, fa.FatMass, cmp.Differences.FatMass)
	row("BMI", ia.BMI, fa.BMI, cmp.Differences.BMI)
	return w.Flush()
}

type ConsultationsDeleteCmd struct {
	ID int64 `arg:"" help:"Consultation ID"`
}

func (c *ConsultationsDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require(consultationDest(c.ID)); err != nil {
		return err
	}

	if err := a.api.Consultations.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete consultation %d: %w", c.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Deleted consultation %d\n", c.ID)
	return nil
}

func consultationDest(id int64) navigation.Destination {
	return navigation.Destination("/consultas/" + strconv.FormatInt(id, 10))
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func printConsultations(out io.Writer, consultations []models.ConsultationSummary) {
	if len(consultations) == 0 {
		fmt.Fprintln(out, "No consultations found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATIENT\tDATE\tWEIGHT\tBODY FAT\tGOAL")
	for _, c := range consultations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.PatientName, clinical.FormatDate(c.Date), formatValue(c.Weight), formatValue(c.BodyFatPercent), c.Goal)
	}
	w.Flush()
}
