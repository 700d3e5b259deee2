package oddsapi

// Wire types for The Odds API v4 responses.

type eventResponse struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}

type oddsResponse struct {
	ID         string           `json:"id"`
	SportKey   string           `json:"sport_key"`
	HomeTeam   string           `json:"home_team"`
	AwayTeam   string           `json:"away_team"`
	Bookmakers []bookmakerEntry `json:"bookmakers"`
}

type bookmakerEntry struct {
	Key     string        `json:"key"`
	Title   string        `json:"title"`
	Markets []marketEntry `json:"markets"`
}

type marketEntry struct {
	Key        string         `json:"key"`
	LastUpdate string         `json:"last_update"`
	Outcomes   []outcomeEntry `json:"outcomes"`
}

type outcomeEntry struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

type scoreResponse struct {
	ID        string       `json:"id"`
	HomeTeam  string       `json:"home_team"`
	AwayTeam  string       `json:"away_team"`
	Completed bool         `json:"completed"`
	Scores    []scoreEntry `json:"scores"`
}

type scoreEntry struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}
