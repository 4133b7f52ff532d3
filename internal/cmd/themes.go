package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/slidedeck/internal/theme"
)

var (
	themeName    = lipgloss.NewStyle().Bold(true)
	themeDetails = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"})
)

func themesCmd() *cobra.Command {
	var asJSON bool

	cmd := cobra.Command{
		Use:   "themes [pattern...]",
		Short: "List available themes.",
		Long:  "Themes lists the registered themes, optionally only those whose id matches one of the glob patterns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, err := newBuilder("")
			if err != nil {
				return err
			}

			return builder.Invoke(func(r *theme.Registry) error {
				themes, err := filterThemesByGlobs(r.List(), args)
				if err != nil {
					return err
				}

				if asJSON {
					encoder := json.NewEncoder(cmd.OutOrStdout())
					encoder.SetIndent("", "  ")
					return errors.Wrap(encoder.Encode(themes), "failed to marshal themes")
				}

				defaultID := r.DefaultID()
				for _, t := range themes {
					marker := " "
					if t.ID == defaultID {
						marker = "*"
					}
					_, err := fmt.Fprintf(
						cmd.OutOrStdout(),
						"%s %s %s %s\n",
						marker,
						swatches(t),
						themeName.Render(t.ID),
						themeDetails.Render(fmt.Sprintf("%s, %s/%s", t.Name, t.Fonts.Heading, t.Fonts.Paragraph)),
					)
					if err != nil {
						return errors.WithStack(err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print themes as JSON.")

	return &cmd
}

// swatches renders the background, heading and paragraph colours.
// Backgrounds which are not plain colours, like gradients, are left blank.
func swatches(t theme.Theme) string {
	var b strings.Builder
	for _, c := range []string{t.Colors.Background, t.Colors.Heading, t.Colors.Paragraph} {
		style := lipgloss.NewStyle()
		if strings.HasPrefix(c, "#") {
			style = style.Background(lipgloss.Color(c))
		}
		b.WriteString(style.Render("  "))
	}
	return b.String()
}

func parseGlobs(items []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(items))
	for _, item := range items {
		g, err := glob.Compile(item)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", item)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func filterThemesByGlobs(themes []theme.Theme, patterns []string) (result []theme.Theme, _ error) {
	if len(patterns) == 0 {
		return themes, nil
	}

	globs, err := parseGlobs(patterns)
	if err != nil {
		return nil, err
	}

	for _, t := range themes {
		for _, g := range globs {
			if g.Match(t.ID) {
				result = append(result, t)
				break
			}
		}
	}
	return result, nil
}
