package ingest

import "strings"

// Technology is one of the fixed coverage technology categories. Code is the
// numeric value stored on broadband rows and used by the UI's filter.
type Technology struct {
	Code int
	Name string
}

var (
	TechCopper        = Technology{Code: 30, Name: "Copper"}
	TechFiber         = Technology{Code: 40, Name: "Fiber"}
	TechCable         = Technology{Code: 50, Name: "Cable"}
	TechSatellite     = Technology{Code: 60, Name: "Satellite"}
	TechFixedWireless = Technology{Code: 70, Name: "Fixed Wireless"}
)

// techPatterns is ordered; the first substring match wins. Licensed and
// unlicensed fixed wireless collapse into one category, as do both satellite
// orbit classes.
var techPatterns = []struct {
	pattern string
	tech    Technology
}{
	{"FibertothePremises", TechFiber},
	{"Cable", TechCable},
	{"Copper", TechCopper},
	{"UnlicensedFixedWireless", TechFixedWireless},
	{"LicensedFixedWireless", TechFixedWireless},
	{"GSOSatellite", TechSatellite},
	{"NGSOSatellite", TechSatellite},
}

// Classify maps a coverage filename to its technology category. A false return
// means the file is not a recognized coverage extract; callers skip it without
// error, since mixed download directories are expected.
func Classify(filename string) (Technology, bool) {
	for _, p := range techPatterns {
		if strings.Contains(filename, p.pattern) {
			return p.tech, true
		}
	}
	return Technology{}, false
}
