package streets

// Abbreviation pairs a short form with its expansion.
type Abbreviation struct {
	Short string
	Full  string
}

// Table lists every expansion in priority order. Short forms are lower-case;
// when a short form appears twice, the first entry wins.
var Table = []Abbreviation{
	// Directionals
	{"n", "North"},
	{"s", "South"},
	{"e", "East"},
	{"w", "West"},
	{"ne", "Northeast"},
	{"nw", "Northwest"},
	{"se", "Southeast"},
	{"sw", "Southwest"},

	// Street types
	{"aly", "Alley"},
	{"ave", "Avenue"},
	{"av", "Avenue"},
	{"bch", "Beach"},
	{"blvd", "Boulevard"},
	{"byp", "Bypass"},
	{"cir", "Circle"},
	{"ct", "Court"},
	{"cres", "Crescent"},
	{"cv", "Cove"},
	{"dr", "Drive"},
	{"expy", "Expressway"},
	{"fwy", "Freeway"},
	{"hwy", "Highway"},
	{"jct", "Junction"},
	{"ln", "Lane"},
	{"lp", "Loop"},
	{"pkwy", "Parkway"},
	{"pl", "Place"},
	{"plz", "Plaza"},
	{"pt", "Point"},
	{"rd", "Road"},
	{"rte", "Route"},
	{"sq", "Square"},
	{"st", "Street"},
	{"ter", "Terrace"},
	{"tpke", "Turnpike"},
	{"trl", "Trail"},
	{"xing", "Crossing"},
}

// abbreviations indexes Table by short form.
var abbreviations = buildIndex(Table)

func buildIndex(table []Abbreviation) map[string]string {
	idx := make(map[string]string, len(table))
	for _, a := range table {
		if _, seen := idx[a.Short]; seen {
			continue
		}
		idx[a.Short] = a.Full
	}
	return idx
}
