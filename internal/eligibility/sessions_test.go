package eligibility

import "testing"

func TestDefaultCatalogue(t *testing.T) {
	c := DefaultCatalogue()
	if n := len(c.Sessions()); n != 8 {
		t.Fatalf("sessions = %d, want 8", n)
	}
	if got := c.Groups(); len(got) != 2 || got[0] != GroupAfternoon || got[1] != GroupEvening {
		t.Fatalf("groups = %v", got)
	}
	s, ok := c.Lookup("9:30 PM - 10:00 PM")
	if !ok || s.Group != GroupEvening || s.Start.String() != "21:30" {
		t.Fatalf("Lookup = %+v, %v", s, ok)
	}
	if labels := c.Labels(GroupAfternoon); len(labels) != 4 || labels[0] != "1:00 PM - 1:30 PM" {
		t.Fatalf("afternoon labels = %v", labels)
	}
}

func TestNewCatalogueRejectsBadConfig(t *testing.T) {
	ok := Session{Label: "a", Group: GroupAfternoon, Start: TimeOfDay{13, 0}, End: TimeOfDay{13, 30}}
	cases := map[string][]Session{
		"empty":          nil,
		"duplicate":      {ok, ok},
		"blank label":    {{Group: GroupAfternoon, Start: TimeOfDay{13, 0}, End: TimeOfDay{13, 30}}},
		"no window":      {{Label: "b", Group: "night", Start: TimeOfDay{23, 0}, End: TimeOfDay{23, 30}}},
		"ends too early": {{Label: "c", Group: GroupEvening, Start: TimeOfDay{21, 0}, End: TimeOfDay{20, 0}}},
	}
	for name, sessions := range cases {
		if _, err := NewCatalogue(sessions, DefaultWindows); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("15:00-19:30")
	if err != nil {
		t.Fatal(err)
	}
	if w.String() != "15:00-19:30" {
		t.Fatalf("String = %s", w)
	}
	for _, bad := range []string{"15:00", "19:30-15:00", "1500-1930", "25:00-26:00"} {
		if _, err := ParseWindow(bad); err == nil {
			t.Errorf("ParseWindow(%q) succeeded", bad)
		}
	}
}

func TestParseGroup(t *testing.T) {
	if g, err := ParseGroup("evening"); err != nil || g != GroupEvening {
		t.Fatalf("ParseGroup = %v, %v", g, err)
	}
	if _, err := ParseGroup("morning"); err == nil {
		t.Fatal("expected error")
	}
}
