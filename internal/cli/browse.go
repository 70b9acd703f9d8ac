package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/lockfile"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newBrowseCmd creates the browse command, an interactive package list.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the locked package set interactively",
		Long: `Browse opens an interactive list of every locked package. Arrow keys
(or j/k) navigate, enter shows the full record, esc goes back, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, _, err := openLockfile(cmd.Context())
			if err != nil {
				return err
			}
			model := newBrowseModel(lf)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// browseModel is the bubbletea model for the package browser. It has
// two screens: the package table, and a single-package detail view.
type browseModel struct {
	packages []*lockfile.Package
	cursor   int
	offset   int
	height   int
	detail   *lockfile.Package
}

func newBrowseModel(lf *lockfile.Lockfile) browseModel {
	pkgs := make([]*lockfile.Package, 0, len(lf.Packages))
	for i := range lf.Packages {
		pkgs = append(pkgs, &lf.Packages[i])
	}
	sort.Slice(pkgs, func(i, k int) bool {
		a, b := lockfile.NormalizeName(pkgs[i].Name), lockfile.NormalizeName(pkgs[k].Name)
		if a != b {
			return a < b
		}
		return pkgs[i].Version < pkgs[k].Version
	})
	return browseModel{packages: pkgs, height: 15}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.detail != nil {
				m.detail = nil
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.detail == nil && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.detail == nil && m.cursor < len(m.packages)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			if m.detail == nil && len(m.packages) > 0 {
				m.detail = m.packages[m.cursor]
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	if m.detail != nil {
		return m.detailView()
	}
	return m.listView()
}

func (m browseModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Locked Packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.packages) {
		end = len(m.packages)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		pkg := m.packages[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		artifacts := "—"
		if n := len(pkg.Artifacts()); n > 0 {
			artifacts = fmt.Sprintf("%d", n)
		}

		rows = append(rows, []string{
			cursor,
			lockfile.NormalizeName(pkg.Name),
			pkg.Version,
			string(pkg.Source.Kind()),
			artifacts,
			fmt.Sprintf("%d", len(pkg.Dependencies)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Version", "Source", "Artifacts", "Deps").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.offset + row
			if actualIdx >= len(m.packages) {
				return lipgloss.NewStyle()
			}
			pkg := m.packages[actualIdx]

			base := lipgloss.NewStyle()
			if actualIdx == m.cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			if pkg.IsLocal() {
				return base.Foreground(colorGray)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.packages))))

	return b.String()
}

func (m browseModel) detailView() string {
	pkg := m.detail
	var b strings.Builder

	b.WriteString(StyleTitle.Render(lockfile.NormalizeName(pkg.Name)) + " " + StyleValue.Render(pkg.Version))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	line := func(key, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			listDimStyle.Render(fmt.Sprintf("%-10s", key)), StyleValue.Render(value)))
	}

	line("source", string(pkg.Source.Kind()))
	if v := pkg.Source.Value(); v != "" {
		line("origin", v)
	}

	if len(pkg.Dependencies) > 0 {
		b.WriteString("\n" + StyleHighlight.Render("  dependencies") + "\n")
		for _, dep := range pkg.Dependencies {
			suffix := ""
			if dep.Marker != "" {
				suffix = listDimStyle.Render(" ; " + dep.Marker)
			}
			b.WriteString("    " + dep.Name + suffix + "\n")
		}
	}

	artifacts := pkg.Artifacts()
	if len(artifacts) > 0 {
		b.WriteString("\n" + StyleHighlight.Render("  artifacts") + "\n")
		for i := range artifacts {
			a := &artifacts[i]
			kind := "sdist"
			if a.IsWheel() {
				kind = "wheel"
			}
			b.WriteString(fmt.Sprintf("    %s %s %s\n",
				listDimStyle.Render(kind), a.Filename(), listDimStyle.Render(formatSize(a.Size))))
		}
	}

	return b.String()
}
