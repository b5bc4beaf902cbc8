package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

type viewFlags struct {
	page   int
	search string
}

func (flags *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flags.page, "page", 1, "Page of results to print")
	cmd.Flags().StringVar(&flags.search, "search", "", "Only keep rows containing this text")
}

// dateFlag registers --date; an empty value falls back to web.default_date.
func dateFlag(cmd *cobra.Command, date *string) {
	cmd.Flags().StringVar(date, "date", "", "Service date as YYYYMMDD")
}

func (app *GtfsCtlApp) dateParams(date string) url.Values {
	if date == "" {
		date = app.settings.Web.DefaultDate
	}
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	return params
}

// runPanel opens one panel, waits for its fetch, applies search and page,
// and prints the result.
func (app *GtfsCtlApp) runPanel(name string, params url.Values, flags viewFlags) error {
	entry, ok := app.catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("panel %q is not available with this configuration", name)
	}

	p := entry.New()
	if err := p.Open(params); err != nil {
		var validation *panel.ValidationError
		if errors.As(err, &validation) {
			return fmt.Errorf("%s: %s %s", entry.Title, strings.ReplaceAll(validation.Param, "_", " "), validation.Message)
		}
		return err
	}
	defer p.Close()

	app.wait(fmt.Sprintf("Fetching %s...", strings.ToLower(entry.Title)), p.Wait)
	p.SetSearchText(flags.search)
	p.GoToPage(flags.page)
	return renderView(app.Out, p.View())
}

func NewPanelsCmd(app *GtfsCtlApp) *cobra.Command {
	upper := cases.Upper(language.English)

	cmd := &cobra.Command{
		Use:   "panels",
		Short: "List every dashboard panel and the params it takes",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := app.catalog.Groups()
			for _, group := range app.catalog.GroupNames() {
				fmt.Fprintln(app.Out, titleStyle.Render(upper.String(group)))
				for _, entry := range groups[group] {
					line := fmt.Sprintf("  %-24s %s", entry.Name, entry.Description)
					if len(entry.Required) > 0 {
						line += mutedStyle.Render(" (requires " + strings.Join(entry.Required, ", ") + ")")
					}
					fmt.Fprintln(app.Out, line)
				}
			}
			return nil
		},
	}

	return cmd
}
