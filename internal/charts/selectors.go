package charts

// Billboard markup
const (
	selectorChartPanelLink = "#topchartsChartPanel .chart-panel__link"
	selectorChartPanelText = ".chart-panel__text"

	selectorRankingList = ".chart-list__elements"
	selectorRankNumber  = ".chart-element__rank__number"
	selectorSongName    = ".chart-element__information__song"
	selectorArtistInfo  = ".chart-element__information__artist"
)
