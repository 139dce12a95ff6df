package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nutricontrol/nutricontrol/internal/clinical"
	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
)

// PatientsCmd manages patients.
type PatientsCmd struct {
	List   PatientsListCmd   `cmd:"" help:"List patients"`
	Get    PatientsGetCmd    `cmd:"" help:"Show a patient"`
	Search PatientsSearchCmd `cmd:"" help:"Search patients by name"`
	Create PatientsCreateCmd `cmd:"" help:"Register a patient"`
	Delete PatientsDeleteCmd `cmd:"" help:"Delete a patient"`
}

type PatientsListCmd struct {
	Filter string `help:"Filter by name (accents ignored) or CPF digits" short:"f"`
	JSON   bool   `help:"Print JSON"`
}

func (p *PatientsListCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require("/pacientes"); err != nil {
		return err
	}

	patients, err := a.api.Patients.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list patients: %w", err)
	}
	patients = clinical.FilterPatients(patients, p.Filter)

	if p.JSON {
		return printJSON(globals.stdout(), patients)
	}
	printPatients(globals.stdout(), patients)
	return nil
}

type PatientsGetCmd struct {
	ID   int64 `arg:"" help:"Patient ID"`
	JSON bool  `help:"Print JSON"`
}

func (p *PatientsGetCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require(patientDest(p.ID)); err != nil {
		return err
	}

	patient, err := a.api.Patients.Get(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get patient %d: %w", p.ID, err)
	}

	if p.JSON {
		return printJSON(globals.stdout(), patient)
	}

	w := tabwriter.NewWriter(globals.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", patient.ID)
	fmt.Fprintf(w, "Name:\t%s (%s)\n", patient.FullName, clinical.Initials(patient.FullName))
	fmt.Fprintf(w, "CPF:\t%s\n", clinical.FormatCPF(patient.CPF))
	if age, err := clinical.Age(patient.BirthDate, time.Now()); err == nil {
		fmt.Fprintf(w, "Born:\t%s (%d years)\n", clinical.FormatDate(patient.BirthDate), age)
	}
	fmt.Fprintf(w, "Sex:\t%s\n", patient.Sex)
	if patient.WhatsApp != "" {
		fmt.Fprintf(w, "WhatsApp:\t%s %s\n", clinical.FormatPhone(patient.WhatsApp), clinical.WhatsAppLink(patient.WhatsApp))
	}
	if patient.Email != "" {
		fmt.Fprintf(w, "Email:\t%s\n", patient.Email)
	}
	fmt.Fprintf(w, "Consultations:\t%d\n", patient.TotalConsults)
	fmt.Fprintf(w, "Last consultation:\t%s\n", clinical.FormatDate(patient.LastConsultation))
	return w.Flush()
}

type PatientsSearchCmd struct {
	Name string `arg:"" help:"Name or part of it"`
	JSON bool   `help:"Print JSON"`
}

func (p *PatientsSearchCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require("/pacientes"); err != nil {
		return err
	}

	patients, err := a.api.Patients.SearchByName(ctx, p.Name)
	if err != nil {
		return fmt.Errorf("failed to search patients: %w", err)
	}

	if p.JSON {
		return printJSON(globals.stdout(), patients)
	}
	printPatients(globals.stdout(), patients)
	return nil
}

type PatientsCreateCmd struct {
	Name      string `help:"Full name" required:""`
	CPF       string `help:"CPF, masked or not" required:""`
	BirthDate string `help:"Birth date (YYYY-MM-DD)" required:"" name:"birth-date"`
	Sex       string `help:"Sex" enum:"MASCULINO,FEMININO" default:"FEMININO"`
	WhatsApp  string `help:"WhatsApp phone number" name:"whatsapp"`
	Email     string `help:"Email"`
}

func (p *PatientsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	if _, err := time.Parse(clinical.DateLayout, p.BirthDate); err != nil {
		return fmt.Errorf("invalid birth date %q, expected YYYY-MM-DD", p.BirthDate)
	}
	if cpf := clinical.StripMask(p.CPF); len(cpf) != 11 {
		return fmt.Errorf("invalid CPF %q, expected 11 digits", p.CPF)
	}

	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require("/pacientes/novo"); err != nil {
		return err
	}

	created, err := a.api.Patients.Create(ctx, models.Patient{
		FullName:  strings.TrimSpace(p.Name),
		CPF:       clinical.StripMask(p.CPF),
		BirthDate: p.BirthDate,
		Sex:       p.Sex,
		WhatsApp:  clinical.StripMask(p.WhatsApp),
		Email:     strings.TrimSpace(p.Email),
	})
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	fmt.Fprintf(globals.stdout(), "Created patient %d: %s\n", created.ID, created.FullName)
	return nil
}

type PatientsDeleteCmd struct {
	ID int64 `arg:"" help:"Patient ID"`
}

func (p *PatientsDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.require(patientDest(p.ID)); err != nil {
		return err
	}

	if err := a.api.Patients.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete patient %d: %w", p.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Deleted patient %d\n", p.ID)
	return nil
}

func patientDest(id int64) navigation.Destination {
	return navigation.Destination("/pacientes/" + strconv.FormatInt(id, 10))
}

func printPatients(out io.Writer, patients []models.Patient) {
	if len(patients) == 0 {
		fmt.Fprintln(out, "No patients found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCPF\tCONSULTATIONS\tLAST CONSULTATION")
	for _, p := range patients {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			p.ID, p.FullName, clinical.FormatCPF(p.CPF), p.TotalConsults, clinical.FormatDate(p.LastConsultation))
	}
	w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
