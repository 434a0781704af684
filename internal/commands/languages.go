package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okra-platform/payloadgen/internal/language"
)

func printLanguages(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LANGUAGE", "EXTENSION", "DEFAULT TARGET DIR")

	for _, spec := range language.All() {
		t.Row(spec.ID.String(), spec.FileExtension, spec.DefaultTargetDir)
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}
