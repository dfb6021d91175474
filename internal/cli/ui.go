package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/tierplan/pkg/catalog"
	"github.com/matzehuels/tierplan/pkg/planner"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleMerged   = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
	iconCycle   = "↻"
)

// stdout is where command output goes; tests swap it.
var stdout io.Writer = os.Stdout

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// printPlanStats prints a one-line plan summary.
func printPlanStats(p *planner.Plan, cached bool) {
	parts := []string{
		fmt.Sprintf("%d recipes", p.RecipeCount()),
		fmt.Sprintf("%d tiers", len(p.Tiers)),
		"cost " + formatAmount(p.Objective),
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	var line strings.Builder
	line.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			line.WriteString(StyleDim.Render(" · "))
		}
		line.WriteString(StyleDim.Render(part))
	}
	line.WriteString(StyleDim.Render(" · ") + statusStyle.Render(status))
	fmt.Fprintln(stdout, line.String())
}

// planTable renders the plan as one table row per recipe.
func planTable(cat *catalog.Catalog, p *planner.Plan) string {
	var rows [][]string
	for i, tier := range p.Tiers {
		for j, pr := range tier {
			label := ""
			if j == 0 {
				label = fmt.Sprintf("%d", i)
			}
			r := cat.Recipe(pr.Recipe)
			rows = append(rows, []string{
				label,
				recipeLabel(p, r.Name, pr),
				formatAmount(pr.Rate),
				formatAmount(pr.Rate * r.Cost),
				formatFlow(cat, r.Products, pr.Rate),
			})
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Tier", "Recipe", "Rate", "Cost", "Output").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return StyleNumber
			case col == 4:
				return StyleDim
			default:
				return lipgloss.NewStyle()
			}
		}).
		Render()
}

// recipeLabel marks recipes that share a cycle with another recipe in the
// same tier.
func recipeLabel(p *planner.Plan, name string, pr planner.PlanRecipe) string {
	for _, up := range pr.Upstream {
		if other, ok := p.Find(up); ok && other.Tier == pr.Tier {
			return name + " " + styleMerged.Render(iconCycle)
		}
	}
	return name
}

func formatFlow(cat *catalog.Catalog, amounts []catalog.Amount, rate float64) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = formatAmount(a.Amount*rate) + " " + cat.Good(a.Good).Name
	}
	return strings.Join(parts, ", ")
}

// formatAmount prints rates and costs with thousands separators and at most
// three decimals, dropping trailing zeros.
func formatAmount(v float64) string {
	return humanize.CommafWithDigits(v, 3)
}

// printNetFlow prints what the plan consumes from and delivers beyond the
// root goods.
func printNetFlow(cat *catalog.Catalog, p *planner.Plan) {
	net := p.NetProduction(cat)
	var in, out []string
	for _, g := range cat.Goods() {
		v, ok := net[g.ID]
		switch {
		case !ok || (v > -planner.Epsilon && v < planner.Epsilon):
		case v < 0:
			in = append(in, formatAmount(-v)+" "+g.Name)
		default:
			out = append(out, formatAmount(v)+" "+g.Name)
		}
	}
	if len(in) > 0 {
		printKeyValue("Consumes", strings.Join(in, ", "))
	}
	if len(out) > 0 {
		printKeyValue("Produces", strings.Join(out, ", "))
	}
}
