package report

import (
	"bytes"
	"encoding/csv"

	"github.com/pocketplan/pocketplan/pkg/plan"
	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	RenderMonthly(summary MonthlySummary) (string, error)
}

type CsvRendererImpl struct{}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderMonthly writes one row per category followed by a total row, then the daily totals.
func (r *CsvRendererImpl) RenderMonthly(summary MonthlySummary) (string, error) {
	data := make([][]string, 0, len(summary.Categories)+len(summary.Days)+5)
	data = append(data, []string{plan.FormatPeriod(summary.Period), "Planned", "Actual", "Remaining", "Progress"})
	for _, c := range summary.Categories {
		data = append(data, []string{
			c.CategoryName,
			c.Planned.StringFixed(2),
			c.Actual.StringFixed(2),
			c.Remaining.StringFixed(2),
			progressToString(c.Progress),
		})
	}
	data = append(data, []string{
		"Total",
		summary.TotalPlanned.StringFixed(2),
		summary.TotalActual.StringFixed(2),
		summary.TotalRemaining.StringFixed(2),
		progressToString(summary.Progress),
	})

	data = append(data, []string{}, []string{"Date", "Amount"})
	for _, d := range summary.Days {
		data = append(data, []string{d.Date.Format("2006-01-02"), d.Amount.StringFixed(2)})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func progressToString(p Progress) string {
	if p.NoPlan {
		return "no plan"
	}
	return p.Percent.StringFixed(2) + "%"
}
