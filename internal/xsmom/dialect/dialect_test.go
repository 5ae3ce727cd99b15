package dialect

import "testing"

func TestEquitiesDialect(t *testing.T) {
	d := Equities()
	if d.Name != "equities" {
		t.Errorf("Name = %q, want equities", d.Name)
	}
	if d.MinDays != 70 {
		t.Errorf("MinDays = %d, want 70", d.MinDays)
	}
	if d.AnnualizationFactor != 252 {
		t.Errorf("AnnualizationFactor = %v, want 252", d.AnnualizationFactor)
	}
	if d.WindowLong != 252 || d.WindowMid != 63 || d.WindowShort != 21 {
		t.Errorf("windows = %d/%d/%d, want 252/63/21", d.WindowLong, d.WindowMid, d.WindowShort)
	}
}

func TestPerpetualsDialect(t *testing.T) {
	d := Perpetuals()
	if d.Name != "perpetuals" {
		t.Errorf("Name = %q, want perpetuals", d.Name)
	}
	if d.MinDays != 15 {
		t.Errorf("MinDays = %d, want 15", d.MinDays)
	}
	if d.AnnualizationFactor != 365 {
		t.Errorf("AnnualizationFactor = %v, want 365", d.AnnualizationFactor)
	}
	if d.WindowLong != 7 || d.WindowMid != 3 || d.WindowShort != 1 {
		t.Errorf("windows = %d/%d/%d, want 7/3/1", d.WindowLong, d.WindowMid, d.WindowShort)
	}
}

func TestByMarket(t *testing.T) {
	cases := []struct {
		market string
		wantOK bool
	}{
		{"equities", true},
		{"perpetuals", true},
		{"unknown", false},
		{"", false},
	}
	for _, c := range cases {
		_, ok := ByMarket(c.market)
		if ok != c.wantOK {
			t.Errorf("ByMarket(%q) ok = %v, want %v", c.market, ok, c.wantOK)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	for _, d := range []Dialect{Equities(), Perpetuals()} {
		sumB := d.WeightsB[0] + d.WeightsB[1] + d.WeightsB[2]
		sumC := d.WeightsC[0] + d.WeightsC[1] + d.WeightsC[2]
		if diff := sumB - 1.0; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s WeightsB sum = %v, want 1.0", d.Name, sumB)
		}
		if diff := sumC - 1.0; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s WeightsC sum = %v, want 1.0", d.Name, sumC)
		}
	}
}
