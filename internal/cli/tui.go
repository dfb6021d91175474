package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/tierplan/pkg/catalog"
	"github.com/matzehuels/tierplan/pkg/planner"
)

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// BrowseModel is the bubbletea model of the tier browser: one tab per tier,
// a table of the tier's recipes, and an optional detail pane for the
// selected recipe.
type BrowseModel struct {
	cat     *catalog.Catalog
	plan    *planner.Plan
	Tier    int
	Cursor  int
	Details bool
	Width   int
}

// NewBrowseModel creates a browser positioned on the first recipe of tier 0.
func NewBrowseModel(cat *catalog.Catalog, p *planner.Plan) BrowseModel {
	return BrowseModel{cat: cat, plan: p, Width: 100}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			if m.Tier > 0 {
				m.Tier--
				m.Cursor = 0
			}
		case "right", "l", "tab":
			if m.Tier < len(m.plan.Tiers)-1 {
				m.Tier++
				m.Cursor = 0
			}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.tier())-1 {
				m.Cursor++
			}
		case "enter", " ":
			m.Details = !m.Details
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	}
	return m, nil
}

func (m BrowseModel) tier() []planner.PlanRecipe {
	if m.Tier >= len(m.plan.Tiers) {
		return nil
	}
	return m.plan.Tiers[m.Tier]
}

// Selected returns the recipe under the cursor.
func (m BrowseModel) Selected() (planner.PlanRecipe, bool) {
	tier := m.tier()
	if m.Cursor >= len(tier) {
		return planner.PlanRecipe{}, false
	}
	return tier[m.Cursor], true
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Production plan"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d recipes · %d tiers · cost %s",
		m.plan.RecipeCount(), len(m.plan.Tiers), formatAmount(m.plan.Objective))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ tier  ↑/↓ recipe  ⏎ details  q quit"))
	b.WriteString("\n\n")

	if len(m.plan.Tiers) == 0 {
		b.WriteString(StyleDim.Render("The plan is empty: every goal is met by root goods."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.tabs())
	b.WriteString("\n")
	b.WriteString(m.recipeTable())
	b.WriteString("\n")

	if pr, ok := m.Selected(); ok && m.Details {
		b.WriteString(m.details(pr))
		b.WriteString("\n")
	}
	if m.plan.Deadlock && m.Tier == len(m.plan.Tiers)-1 {
		b.WriteString(StyleWarning.Render(iconWarning + " this tier holds recipes that could not be ordered"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowseModel) tabs() string {
	tabs := make([]string, len(m.plan.Tiers))
	for i := range m.plan.Tiers {
		label := fmt.Sprintf("Tier %d", i)
		if i == m.Tier {
			tabs[i] = tabActiveStyle.Render(label)
		} else {
			tabs[i] = tabInactiveStyle.Render(label)
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.Width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m BrowseModel) recipeTable() string {
	tier := m.tier()
	rows := make([][]string, len(tier))
	for i, pr := range tier {
		r := m.cat.Recipe(pr.Recipe)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = []string{
			cursor,
			recipeLabel(m.plan, r.Name, pr),
			formatAmount(pr.Rate),
			formatAmount(pr.Rate * r.Cost),
			fmt.Sprint(len(pr.Upstream)),
			fmt.Sprint(len(pr.Downstream)),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Recipe", "Rate", "Cost", "Needs", "Feeds").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case row == m.Cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case col >= 4:
				return StyleDim
			default:
				return lipgloss.NewStyle()
			}
		}).
		Render()
}

func (m BrowseModel) details(pr planner.PlanRecipe) string {
	r := m.cat.Recipe(pr.Recipe)
	lines := []string{
		StyleValue.Bold(true).Render(r.Name),
		"",
		styleHeader.Render("Consumes  ") + formatFlow(m.cat, r.Ingredients, pr.Rate),
		styleHeader.Render("Produces  ") + formatFlow(m.cat, r.Products, pr.Rate),
		styleHeader.Render("Needs     ") + m.names(pr.Upstream),
		styleHeader.Render("Feeds     ") + m.names(pr.Downstream),
	}
	if r.Milestone != "" {
		lines = append(lines, styleHeader.Render("Milestone ")+r.Milestone)
	}
	return detailBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m BrowseModel) names(ids []catalog.RecipeID) string {
	if len(ids) == 0 {
		return StyleDim.Render("nothing")
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = m.cat.Recipe(id).Name
	}
	return strings.Join(names, ", ")
}
