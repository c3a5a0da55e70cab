package transit

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.StatusExtractor = (*Extractor)(nil)

// Selectors locate each level of the status page. Every field is a CSS
// selector group.
type Selectors struct {
	Container  string // the status area; its absence means "not rendered"
	RouteGroup string
	RouteTitle string
	Port       string
	PortName   string
	Row        string
	TimeCell   string
	StatusIcon string // the status text is this element's alt attribute
}

// DefaultSelectors matches the operator's status page layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Container:  "div.status-area",
		RouteGroup: "section.route-group",
		RouteTitle: "h2",
		Port:       "section.port",
		PortName:   "h3",
		Row:        "table tr",
		TimeCell:   "th",
		StatusIcon: "td img[alt]",
	}
}

// Extractor walks route group -> port -> table row.
type Extractor struct {
	container  cascadia.Selector
	routeGroup cascadia.Selector
	routeTitle cascadia.Selector
	port       cascadia.Selector
	portName   cascadia.Selector
	row        cascadia.Selector
	timeCell   cascadia.Selector
	statusIcon cascadia.Selector
}

// NewExtractor compiles the selectors.
func NewExtractor(sel Selectors) (*Extractor, error) {
	var e Extractor
	for _, c := range []struct {
		name string
		src  string
		dst  *cascadia.Selector
	}{
		{"container", sel.Container, &e.container},
		{"route group", sel.RouteGroup, &e.routeGroup},
		{"route title", sel.RouteTitle, &e.routeTitle},
		{"port", sel.Port, &e.port},
		{"port name", sel.PortName, &e.portName},
		{"row", sel.Row, &e.row},
		{"time cell", sel.TimeCell, &e.timeCell},
		{"status icon", sel.StatusIcon, &e.statusIcon},
	} {
		compiled, err := cascadia.Compile(c.src)
		if err != nil {
			return nil, fmt.Errorf("%s selector %q: %w", c.name, c.src, err)
		}
		*c.dst = compiled
	}
	return &e, nil
}

// Extract parses page and returns its rows in document order. Rows missing
// a time label or a status icon are skipped.
func (e *Extractor) Extract(page string) (entities.TransitSnapshot, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return entities.TransitSnapshot{}, fmt.Errorf("parsing html: %w", err)
	}

	container := e.container.MatchFirst(doc)
	if container == nil {
		return entities.TransitSnapshot{}, ports.ErrStatusAreaNotFound
	}

	var snapshot entities.TransitSnapshot
	for _, group := range e.routeGroup.MatchAll(container) {
		section := textOf(e.routeTitle.MatchFirst(group))

		for _, port := range e.port.MatchAll(group) {
			portName := textOf(e.portName.MatchFirst(port))

			for _, row := range e.row.MatchAll(port) {
				timeLabel := textOf(e.timeCell.MatchFirst(row))
				status := attr(e.statusIcon.MatchFirst(row), "alt")
				if timeLabel == "" || status == "" {
					continue
				}
				snapshot.Rows = append(snapshot.Rows, entities.StatusRow{
					Section: section,
					Port:    portName,
					Time:    timeLabel,
					Status:  status,
				})
			}
		}
	}
	return snapshot, nil
}

// textOf returns the whitespace-collapsed text content of n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
