package tag

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Set
	}{
		{"simple", "some,new,tag", Set{"some", "new", "tag"}},
		{"spaces", "now ,  with, some spaces  , in places ", Set{"now", "with", "some spaces", "in places"}},
		{
			"repeated separators",
			"repetitive,, commas, shouldn't cause,,, empty tags",
			Set{"repetitive", "commas", "shouldn't cause", "empty tags"},
		},
		{"empty", "", Set{}},
		{"blank", "   ", Set{}},
		{"only separators", ",,,", Set{}},
		{"duplicates kept", "a,b,a", Set{"a", "b", "a"}},
		{"unicode whitespace", "\tcafé , naïve\n", Set{"café", "naïve"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw, ",")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParse_CustomSeparator(t *testing.T) {
	got := Parse("red; green ;blue", ";")
	want := Set{"red", "green", "blue"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParse_EmptySeparatorFallsBack(t *testing.T) {
	got := Parse("a,b", "")
	if !reflect.DeepEqual(got, Set{"a", "b"}) {
		t.Errorf("got %v", got)
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	s := Parse("now ,  with, some spaces  , in places ", ",")
	if got := s.Join(","); got != "now,with,some spaces,in places" {
		t.Errorf("Join = %q", got)
	}
	if got := Parse(s.Join(","), ","); !reflect.DeepEqual(got, s) {
		t.Errorf("round trip = %v, want %v", got, s)
	}
	if got := (Set{}).Join(","); got != "" {
		t.Errorf("empty Join = %q", got)
	}
}

func TestClone_DoesNotAlias(t *testing.T) {
	s := Set{"a"}
	c := s.Clone()
	c[0] = "b"
	if s[0] != "a" {
		t.Error("clone aliases the original")
	}
	var nilSet Set
	if nilSet.Clone() == nil {
		t.Error("clone of nil must be non-nil")
	}
}

func TestMembership(t *testing.T) {
	s := Parse("interesting,stuff,good,bad", ",")

	if !s.Contains("stuff") || s.Contains("Stuff") {
		t.Error("Contains must be exact and case sensitive")
	}
	if s.ContainsAll([]string{"interesting", "good", "wrong"}) {
		t.Error("ContainsAll must fail when one tag is missing")
	}
	if !s.ContainsAll([]string{"interesting", "good"}) {
		t.Error("ContainsAll must hold for a subset")
	}
	if !s.ContainsAny([]string{"interesting", "good", "wrong"}) {
		t.Error("ContainsAny must hold when one tag matches")
	}
	if s.ContainsAll(nil) || s.ContainsAny(nil) {
		t.Error("empty lists match nothing")
	}
}
