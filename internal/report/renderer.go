package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/kiribu/money-tracker/internal/domain"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/shopspring/decimal"
)

const monthlyTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif">
<h2>{{.Title}}</h2>
<p>Hello {{.Name}},</p>
<p>Here is your summary for {{.Period}}.</p>
<table cellpadding="4">
<tr><td>Income</td><td align="right">{{.Income}} {{.Currency}}</td></tr>
<tr><td>Expenses</td><td align="right">{{.Expenses}} {{.Currency}}</td></tr>
<tr><td><b>Net savings</b></td><td align="right"><b>{{.Net}} {{.Currency}}</b></td></tr>
</table>
{{if .Categories}}
<h3>Expenses by category</h3>
<table cellpadding="4">
{{range .Categories}}<tr><td>{{.Name}}</td><td align="right">{{.Amount}}</td></tr>
{{end}}</table>
{{else}}
<p>No expenses were recorded this month.</p>
{{end}}
<p>{{.IncomeCount}} incomes and {{.ExpenseCount}} expenses recorded.</p>
</body>
</html>
`

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{tmpl: template.Must(template.New("monthly").Parse(monthlyTemplate))}
}

type categoryLine struct {
	Name   string
	Amount string
}

// RenderMonthly returns the subject and HTML body of a monthly report email.
func (r *Renderer) RenderMonthly(user *domain.User, rep *ledgerservice.MonthlyReport) (string, string, error) {
	period := fmt.Sprintf("%s %d", rep.Month, rep.Year)
	subject := "Your MoneyTracker report for " + period

	name := user.FullName
	if name == "" {
		name = user.Username
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, map[string]any{
		"Title":        subject,
		"Name":         name,
		"Period":       period,
		"Currency":     user.Currency,
		"Income":       rep.TotalIncome.StringFixed(2),
		"Expenses":     rep.TotalExpenses.StringFixed(2),
		"Net":          rep.NetSavings.StringFixed(2),
		"Categories":   categoryLines(rep.ExpensesByCategory),
		"IncomeCount":  rep.IncomeTransactions,
		"ExpenseCount": rep.ExpenseTransactions,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render monthly report: %w", err)
	}
	return subject, buf.String(), nil
}

// categoryLines orders categories by amount descending, then name.
func categoryLines(amounts map[string]decimal.Decimal) []categoryLine {
	names := make([]string, 0, len(amounts))
	for name := range amounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := amounts[names[i]], amounts[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})

	lines := make([]categoryLine, len(names))
	for i, name := range names {
		lines[i] = categoryLine{Name: name, Amount: amounts[name].StringFixed(2)}
	}
	return lines
}
