package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"abiscan/internal/abicache"
	"abiscan/internal/abiscan/styles"
	"abiscan/internal/analysis"
	"abiscan/internal/ui/colorize"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewDescriptors
	viewListing
)

// descriptorItem is one row of the descriptor list.
type descriptorItem struct {
	item  analysis.ABIItem
	line  string // plain text from descriptorLine
	names string // known signatures
	dest  int    // jump destination of a function, or -1
}

func (i descriptorItem) FilterValue() string { return i.line }
func (i descriptorItem) Title() string       { return i.line }
func (i descriptorItem) Description() string { return "" }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(descriptorItem)
	if !ok {
		return
	}

	indicator := " "
	selStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.Selector))
	if index == m.Index() {
		indicator = ">"
		selStyle = selStyle.Bold(true)
	}

	var text string
	switch d := i.item.(type) {
	case *analysis.ABIFunction:
		mut := lipgloss.NewStyle().Foreground(lipgloss.Color(mutabilityColor(d.StateMutability)))
		text = fmt.Sprintf("fn  %s  %s  %-6s %s",
			selStyle.Render(d.Selector),
			mut.Render(fmt.Sprintf("%-10s", d.StateMutability)),
			ioSummary(d),
			i.names)
	case *analysis.ABIEvent:
		text = fmt.Sprintf("ev  %s  %s", selStyle.Render(shortHash(d.Hash)), i.names)
	}
	fmt.Fprintf(w, " %s %s", indicator, text)
}

func mutabilityColor(m analysis.Mutability) string {
	switch m {
	case analysis.Payable:
		return styles.Payable
	case analysis.View:
		return styles.View
	default:
		return styles.NonPayable
	}
}

type model struct {
	summary     viewport.Model
	descriptors list.Model
	listing     viewport.Model
	spinner     spinner.Model
	mode        viewMode

	name  string
	code  []byte
	cache *abicache.Cache
	sigs  *analysis.SignatureDB

	entry        *abicache.Entry
	listingLines []string
	posLine      map[int]int // instruction offset -> listing line
	loading      bool
	width        int
	height       int
}

type analyzedMsg struct {
	entry *abicache.Entry
}

func analyzeCmd(code []byte, cache *abicache.Cache) tea.Cmd {
	return func() tea.Msg {
		return analyzedMsg{entry: cache.Analyze(code)}
	}
}

func NewModel(name string, code []byte, cache *abicache.Cache, sigs *analysis.SignatureDB) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	descriptors := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	descriptors.SetShowStatusBar(false)
	descriptors.SetFilteringEnabled(true)
	descriptors.Title = "Descriptors"
	descriptors.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	descriptors.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	lvp := viewport.New()
	lvp.SetWidth(80)
	lvp.SetHeight(24)

	m := model{
		summary:     vp,
		descriptors: descriptors,
		listing:     lvp,
		spinner:     s,
		mode:        viewSummary,
		name:        name,
		code:        code,
		cache:       cache,
		sigs:        sigs,
		loading:     true,
		width:       80,
		height:      24,
	}
	m.updateSummary()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		analyzeCmd(m.code, m.cache),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case analyzedMsg:
		m.entry = msg.entry
		m.loading = false
		m.updateDescriptors()
		m.updateListing()
		m.updateSummary()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateSummary()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.summary.SetWidth(msg.Width)
			m.summary.SetHeight(msg.Height - 2)
			m.descriptors.SetWidth(msg.Width)
			m.descriptors.SetHeight(msg.Height - 2)
			m.listing.SetWidth(msg.Width)
			m.listing.SetHeight(msg.Height - 2)
			m.updateSummary()
		}

	case tea.KeyMsg:
		// While filtering, the list owns every key but quit.
		if m.mode == viewDescriptors && m.descriptors.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.mode = viewSummary
			return m, nil
		case "d":
			if m.entry != nil {
				m.mode = viewDescriptors
			}
			return m, nil
		case "l":
			if m.entry != nil {
				m.mode = viewListing
			}
			return m, nil
		case "enter":
			if m.mode == viewDescriptors {
				if i, ok := m.descriptors.SelectedItem().(descriptorItem); ok {
					m.jumpTo(i.dest)
				}
			}
			return m, nil
		case "tab":
			if m.entry != nil {
				m.mode = (m.mode + 1) % 3
			}
			return m, nil
		case "shift+tab":
			if m.entry != nil {
				m.mode = (m.mode + 2) % 3
			}
			return m, nil
		}
	}

	switch m.mode {
	case viewDescriptors:
		m.descriptors, cmd = m.descriptors.Update(msg)
	case viewListing:
		m.listing, cmd = m.listing.Update(msg)
	default:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var content, menu string
	switch m.mode {
	case viewDescriptors:
		content = m.descriptors.View()
		menu = " Enter: show in listing • S: summary • L: listing • Tab: cycle • Q: quit "
	case viewListing:
		content = m.listing.View()
		menu = " S: summary • D: descriptors • Tab: cycle • Q: quit "
	default:
		content = m.summary.View()
		if m.entry != nil {
			menu = " D: descriptors • L: listing • Tab: cycle • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m *model) updateSummary() {
	var markdown string
	if m.entry == nil {
		markdown = fmt.Sprintf("# abiscan\n\n```\n; %s\n; %d bytes\n```\n\n%s Analyzing...",
			m.name, len(m.code), m.spinner.View())
	} else {
		markdown = summaryMarkdown(m.name, m.code, m.entry, m.sigs)
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	renderer, err := styles.MarkdownRenderer(width - 2)
	if err != nil {
		m.summary.SetContent(markdown)
		return
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		rendered = markdown
	}
	m.summary.SetContent(strings.TrimSuffix(rendered, "\n"))
}

func (m *model) updateDescriptors() {
	items := make([]list.Item, 0, len(m.entry.ABI))
	for _, it := range m.entry.ABI {
		di := descriptorItem{item: it, line: descriptorLine(it, m.sigs), dest: -1}
		switch d := it.(type) {
		case *analysis.ABIFunction:
			di.names = functionNames(m.sigs, d.Selector)
			if dest, ok := m.entry.Program.Selectors.Get(d.Selector); ok {
				di.dest = dest
			}
		case *analysis.ABIEvent:
			di.names = eventNames(m.sigs, d.Hash)
		}
		items = append(items, di)
	}
	m.descriptors.SetItems(items)
	m.descriptors.Title = fmt.Sprintf("Descriptors (%d functions, %d events)",
		len(m.entry.ABI.Functions()), len(m.entry.ABI.Events()))
}

func (m *model) updateListing() {
	listing := analysis.Annotate(m.code, m.entry.Program, m.sigs)
	m.listingLines = make([]string, len(listing))
	m.posLine = make(map[int]int, len(listing))
	for i, inst := range listing {
		m.listingLines[i] = colorize.Line(inst.String())
		m.posLine[inst.Pos] = i
	}
	m.listing.SetContent(strings.Join(m.listingLines, "\n"))
	m.listing.GotoTop()
}

// jumpTo shows the listing scrolled to the instruction at pos.
func (m *model) jumpTo(pos int) {
	line, ok := m.posLine[pos]
	if !ok {
		return
	}
	m.mode = viewListing
	m.listing.SetYOffset(line)
}
