package ingest

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		filename string
		want     Technology
		matched  bool
	}{
		{"bdc_44_Cable_fixed_broadband_J24.zip", TechCable, true},
		{"bdc_44_Copper_fixed_broadband_J24.zip", TechCopper, true},
		{"bdc_44_FibertothePremises_fixed_broadband_J24.zip", TechFiber, true},
		{"bdc_44_LicensedFixedWireless_fixed_broadband_J24.zip", TechFixedWireless, true},
		{"bdc_44_UnlicensedFixedWireless_fixed_broadband_J24.zip", TechFixedWireless, true},
		{"bdc_44_GSOSatellite_fixed_broadband_J24.zip", TechSatellite, true},
		{"bdc_44_NGSOSatellite_fixed_broadband_J24.zip", TechSatellite, true},
		{"bdc_44_Other_fixed_broadband_J24.zip", Technology{}, false},
		{"notes.txt", Technology{}, false},
	}

	for _, c := range cases {
		got, ok := Classify(c.filename)
		if ok != c.matched {
			t.Errorf("Classify(%q) matched = %v, want %v", c.filename, ok, c.matched)
			continue
		}
		if ok && got != c.want {
			t.Errorf("Classify(%q) = %+v, want %+v", c.filename, got, c.want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// "UnlicensedFixedWireless" also contains "LicensedFixedWireless"; both
	// entries must resolve to the same category either way.
	got, ok := Classify("bdc_44_UnlicensedFixedWireless_J24.zip")
	if !ok || got != TechFixedWireless {
		t.Errorf("got %+v (matched=%v), want TechFixedWireless", got, ok)
	}
}
