package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"folio/internal/client"
)

const maxCellWidth = 40

func printTable(w io.Writer, form client.Form, docs []client.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintf(w, "No %s yet\n", form.Resource)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := append([]string{"ID"}, upper(form.Columns)...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, doc := range docs {
		row := []string{doc.ID()}
		for _, col := range form.Columns {
			row = append(row, cell(doc[col]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func printDocument(w io.Writer, doc client.Document) error {
	if doc == nil {
		_, err := fmt.Fprintln(w, "null")
		return err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func printAsset(w io.Writer, asset client.Asset) error {
	_, err := fmt.Fprintf(w, "url:      %s\npublicId: %s\n", asset.URL, asset.PublicID)
	return err
}

func printSnapshot(w io.Writer, snap client.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tITEMS\tSTATUS")
	counts := map[string]int{
		"skills":       len(snap.Skills),
		"experiences":  len(snap.Experiences),
		"educations":   len(snap.Educations),
		"projects":     len(snap.Projects),
		"blogs":        len(snap.Blogs),
		"certificates": len(snap.Certificates),
		"achievements": len(snap.Achievements),
	}
	if snap.Profile != nil {
		counts["profile"] = 1
	}
	failed := map[string]bool{}
	for _, s := range snap.Failed {
		failed[s] = true
	}
	for _, section := range client.Sections {
		status := "ok"
		if failed[section] {
			status = "failed: " + snap.Errors[section].Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", section, counts[section], status)
	}
	return tw.Flush()
}

// confirm 只有输入 y 或 yes 才返回 true。
func confirm(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, _ := r.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func cell(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		s = ""
	case string:
		s = t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		s = strings.Join(parts, ", ")
	case float64:
		s = fmt.Sprintf("%g", t)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

func upper(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(c)
	}
	return out
}
