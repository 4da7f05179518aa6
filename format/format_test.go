package format

import "testing"

func TestSize(t *testing.T) {
	cases := []struct {
		name string
		in   int64
		want string
	}{
		{"zero", 0, "0 Bytes"},
		{"bytes top", 1023, "1023 Bytes"},
		{"one kb", 1024, "1 KB"},
		{"kb top", unitMB - 1, "1023 KB"},
		{"one mb", unitMB, "1 MB"},
		{"mb top", unitGB - 1, "1023 MB"},
		{"one gb", unitGB, "1 GB"},
		{"gb top", unitTB - 1, "1023 GB"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Size(c.in, -1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("Size(%d) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestSizeTerabyte(t *testing.T) {
	cases := []struct {
		name      string
		in        int64
		precision int
		want      string
	}{
		{"one tb default precision", unitTB, -1, "1.0 TB (1024 GB)"},
		{"two and a half tb", 2748779069440, -1, "2.5 TB (2560 GB)"},
		{"precision zero", 2748779069440, 0, "2 TB (2560 GB)"},
		{"precision two", 2748779069440, 2, "2.50 TB (2560 GB)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Size(c.in, c.precision)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("Size(%d, %d) = %q, want %q", c.in, c.precision, got, c.want)
			}
		})
	}
}

func TestSizeNegative(t *testing.T) {
	if _, err := Size(-1, -1); err == nil {
		t.Fatal("expected error for negative bytes")
	}
}

func TestRate(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0 Bytes/s"},
		{"truncates fraction", 42.7, "42 Bytes/s"},
		{"bytes top", 999.9, "999 Bytes/s"},
		{"one kb", 1024.0, "1.0 KB/s"},
		{"rounds up to kb top", unitKB*unitKB - 1, "1024.0 KB/s"},
		{"forty five mb", float64(unitMB) * 45, "45.0 MB/s"},
		{"two and a half tb", float64(unitTB) * 2.5, "2.5 TB/s"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Rate(c.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("Rate(%v) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestRateNegative(t *testing.T) {
	if _, err := Rate(-1); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0s"},
		{"floors sub-second", 45.9, "45s"},
		{"fifty nine seconds", 59, "59s"},
		{"one minute", 60, "1m"},
		{"one minute thirty", 90, "1m 30s"},
		{"floors remainder", 90.5, "1m 30s"},
		{"fifty nine fifty nine", 3599, "59m 59s"},
		{"one hour", 3600, "1h"},
		{"one hour one minute", 3660, "1h 1m"},
		{"floors hour remainder", 3665.7, "1h 1m"},
		{"twenty three hours fifty nine", 86340, "23h 59m"},
		{"one day", 86400, "1d"},
		{"one day one hour", 90000, "1d 1h"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Duration(c.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("Duration(%v) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestDurationNegative(t *testing.T) {
	if _, err := Duration(-1); err == nil {
		t.Fatal("expected error for negative duration")
	}
}
