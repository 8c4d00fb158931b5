package charts

import "fmt"

const DefaultRankLimit = 20

// Chart is one entry of the popular charts panel.
type Chart struct {
	Name string
	URL  string
}

// Item is one ranked row of a chart.
type Item struct {
	Rank string
	Name string
	Info string
}

// Content renders the item the way it is listed on the console.
func (i Item) Content() string {
	return fmt.Sprintf("rank%s: %s (%s)", i.Rank, i.Name, i.Info)
}

// Listing renders the chart at its 1-based position in the popular charts
// panel, matching the --chart-index that selects it.
func (c Chart) Listing(position int) string {
	return fmt.Sprintf("[%d]: %s", position, c.Name)
}
