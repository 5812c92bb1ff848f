package discovery

import "testing"

func TestParseFlexibleTimestamp_Numeric(t *testing.T) {
	got, err := ParseFlexibleTimestamp(float64(1700000000))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1700000000 {
		t.Errorf("got %d", got)
	}
}

func TestParseFlexibleTimestamp_NumericString(t *testing.T) {
	got, err := ParseFlexibleTimestamp("1700000000")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1700000000 {
		t.Errorf("got %d", got)
	}
}

func TestParseFlexibleTimestamp_ISO8601(t *testing.T) {
	got, err := ParseFlexibleTimestamp("1970-01-01T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("epoch ISO-8601 should parse to 0, got %d", got)
	}
}

func TestParseFlexibleTimestamp_FractionalSecondsTruncated(t *testing.T) {
	withFraction, err := ParseFlexibleTimestamp("2024-01-15T10:30:00.999Z")
	if err != nil {
		t.Fatal(err)
	}
	without, err := ParseFlexibleTimestamp("2024-01-15T10:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if withFraction != without {
		t.Errorf("fractional seconds must be floored, not rounded: %d != %d", withFraction, without)
	}
}

func TestDaysFromCivil_KnownDates(t *testing.T) {
	cases := []struct {
		y, m, d int
		want    int64
	}{
		{1970, 1, 1, 0},
		{1969, 12, 31, -1},
		{2000, 3, 1, 11017},
		{2024, 1, 15, 19737},
	}
	for _, c := range cases {
		got := daysFromCivil(c.y, c.m, c.d)
		if got != c.want {
			t.Errorf("daysFromCivil(%d,%d,%d) = %d, want %d", c.y, c.m, c.d, got, c.want)
		}
	}
}
