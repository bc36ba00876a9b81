package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/registry"
)

// RegistryResult is the result of a registry validate command.
type RegistryResult struct {
	File       string `json:"file" yaml:"file"`
	Recipients int    `json:"recipients" yaml:"recipients"`
}

func outputResult(w io.Writer, result any, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	case "table", "":
		return outputTable(w, result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func outputJSON(w io.Writer, result any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputYAML goes through JSON so field names match the other formats.
func outputYAML(w io.Writer, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func outputTable(w io.Writer, result any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	switch r := result.(type) {
	case []database.ProcessedCompetition:
		fmt.Fprintln(tw, "COMPETITION\tNOTIFICATION\tPROCESSED")
		for _, p := range r {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.CompetitionID, p.NotificationID, formatTime(p.ProcessedAt))
		}
	case *database.Notification:
		fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
		fmt.Fprintf(tw, "COMPETITION:\t%s\n", r.CompetitionID)
		fmt.Fprintf(tw, "CREATED:\t%s\n", formatTime(r.CreatedAt))
		fmt.Fprintf(tw, "SENT:\t%t\n", r.Sent)
		if r.SentAt != nil {
			fmt.Fprintf(tw, "SENT AT:\t%s\n", formatTime(*r.SentAt))
		}
		fmt.Fprintf(tw, "RECIPIENTS:\t%d\n", len(r.Recipients))
		for _, id := range r.Recipients {
			fmt.Fprintf(tw, "\t%s\n", id)
		}
	case []database.Notification:
		fmt.Fprintln(tw, "ID\tCOMPETITION\tCREATED")
		for _, n := range r {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, n.CompetitionID, formatTime(n.CreatedAt))
		}
	case []database.Venue:
		fmt.Fprintln(tw, "CODE\tNAME\tCITY\tCOUNTRY")
		for _, v := range r {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Code, v.Name, v.City, v.CountryCode)
		}
	case []registry.Recipient:
		fmt.Fprintln(tw, "ID\tNAME\tCLUB\tCATEGORY")
		for _, p := range r {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name(), p.ClubCode, p.Category)
		}
	case RegistryResult:
		fmt.Fprintf(tw, "FILE:\t%s\n", r.File)
		fmt.Fprintf(tw, "RECIPIENTS:\t%d\n", r.Recipients)
	default:
		return outputJSON(w, result)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.In(time.Local).Format(time.RFC3339)
}
