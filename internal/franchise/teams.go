package franchise

// TableVersion identifies the revision of Teams. Bump it when entries change.
const TableVersion = "2024.1"

// Entry maps one franchise name to its code for a range of seasons.
// To is zero for a name still in use.
type Entry struct {
	Name string
	Code string
	From int
	To   int
}

// Active reports whether the entry overlaps the seasons from..to
func (e Entry) Active(from, to int) bool {
	if e.To != 0 && e.To < from {
		return false
	}
	return e.From <= to
}

// Teams is the basketball-reference franchise table since the 1989-90 expansion
var Teams = []Entry{
	{"Atlanta Hawks", "ATL", 1969, 0},
	{"Boston Celtics", "BOS", 1947, 0},
	{"Brooklyn Nets", "BRK", 2013, 0},
	{"Charlotte Bobcats", "CHA", 2005, 2014},
	{"Charlotte Hornets", "CHH", 1989, 2002},
	{"Charlotte Hornets", "CHO", 2015, 0},
	{"Chicago Bulls", "CHI", 1967, 0},
	{"Cleveland Cavaliers", "CLE", 1971, 0},
	{"Dallas Mavericks", "DAL", 1981, 0},
	{"Denver Nuggets", "DEN", 1977, 0},
	{"Detroit Pistons", "DET", 1958, 0},
	{"Golden State Warriors", "GSW", 1972, 0},
	{"Houston Rockets", "HOU", 1972, 0},
	{"Indiana Pacers", "IND", 1977, 0},
	{"Los Angeles Clippers", "LAC", 1985, 0},
	{"Los Angeles Lakers", "LAL", 1961, 0},
	{"Memphis Grizzlies", "MEM", 2002, 0},
	{"Miami Heat", "MIA", 1989, 0},
	{"Milwaukee Bucks", "MIL", 1969, 0},
	{"Minnesota Timberwolves", "MIN", 1990, 0},
	{"New Jersey Nets", "NJN", 1978, 2012},
	{"New Orleans Hornets", "NOH", 2003, 2005},
	{"New Orleans Hornets", "NOH", 2008, 2013},
	{"New Orleans/Oklahoma City Hornets", "NOK", 2006, 2007},
	{"New Orleans Pelicans", "NOP", 2014, 0},
	{"New York Knicks", "NYK", 1947, 0},
	{"Oklahoma City Thunder", "OKC", 2009, 0},
	{"Orlando Magic", "ORL", 1990, 0},
	{"Philadelphia 76ers", "PHI", 1964, 0},
	{"Phoenix Suns", "PHO", 1969, 0},
	{"Portland Trail Blazers", "POR", 1971, 0},
	{"Sacramento Kings", "SAC", 1986, 0},
	{"San Antonio Spurs", "SAS", 1977, 0},
	{"Seattle SuperSonics", "SEA", 1968, 2008},
	{"Toronto Raptors", "TOR", 1996, 0},
	{"Utah Jazz", "UTA", 1980, 0},
	{"Vancouver Grizzlies", "VAN", 1996, 2001},
	{"Washington Bullets", "WSB", 1975, 1997},
	{"Washington Wizards", "WAS", 1998, 0},
}
