package pep440

import (
	"sort"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0.19.0", "0.19.0", false},
		{"1.0.1", "1.0.1", false},
		{"1!2.0", "1!2.0", false},
		{"1.0a1", "1.0a1", false},
		{"1.0.alpha1", "1.0a1", false},
		{"1.0b2", "1.0b2", false},
		{"1.0rc1", "1.0rc1", false},
		{"1.0.c1", "1.0rc1", false},
		{"1.0.post2", "1.0.post2", false},
		{"1.0-1", "1.0.post1", false},
		{"1.0.rev3", "1.0.post3", false},
		{"1.0.dev4", "1.0.dev4", false},
		{"1.0.dev", "1.0.dev0", false},
		{"1.0+local.7", "1.0+local.7", false},
		{"1.0+Local_7", "1.0+local.7", false},
		{"v1.2.3", "1.2.3", false},
		{"  1.0  ", "1.0", false},
		{"", "", true},
		{"not-a-version", "", true},
		{"1.0.0.", "", true},
		{"1..0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersion_Compare_Ordering(t *testing.T) {
	// Listed in strictly ascending order.
	ascending := []string{
		"0.9",
		"1.0.dev0",
		"1.0.dev1",
		"1.0a1",
		"1.0a2.dev0",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0+abc",
		"1.0+abc.5",
		"1.0+5",
		"1.0.post0.dev1",
		"1.0.post0",
		"1.0.post1",
		"1.0.1",
		"1.1",
		"1!0.1",
	}

	for i := 0; i < len(ascending)-1; i++ {
		a, b := MustParse(ascending[i]), MustParse(ascending[i+1])
		if c := a.Compare(b); c != -1 {
			t.Errorf("Compare(%s, %s) = %d, want -1", a, b, c)
		}
		if c := b.Compare(a); c != 1 {
			t.Errorf("Compare(%s, %s) = %d, want 1", b, a, c)
		}
	}
}

func TestVersion_Compare_Equal(t *testing.T) {
	pairs := [][2]string{
		{"1.0", "1.0.0"},
		{"1.0", "1.0.0.0"},
		{"1.0a1", "1.0.alpha1"},
		{"1.0.post1", "1.0-1"},
		{"1.0+foo-bar", "1.0+foo.bar"},
	}

	for _, p := range pairs {
		a, b := MustParse(p[0]), MustParse(p[1])
		if c := a.Compare(b); c != 0 {
			t.Errorf("Compare(%s, %s) = %d, want 0", p[0], p[1], c)
		}
	}
}

func TestVersion_Sort(t *testing.T) {
	vs := []Version{
		MustParse("0.19.0"),
		MustParse("0.18.6"),
		MustParse("0.19.0rc1"),
		MustParse("0.5.0"),
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Compare(vs[j]) < 0 })

	want := []string{"0.5.0", "0.18.6", "0.19.0rc1", "0.19.0"}
	for i, v := range vs {
		if v.String() != want[i] {
			t.Errorf("sorted[%d] = %s, want %s", i, v, want[i])
		}
	}
}

func TestVersion_IsPrerelease(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.0", false},
		{"1.0.post1", false},
		{"1.0a1", true},
		{"1.0rc2", true},
		{"1.0.dev3", true},
	}

	for _, tt := range tests {
		if got := MustParse(tt.in).IsPrerelease(); got != tt.want {
			t.Errorf("IsPrerelease(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVersion_Public(t *testing.T) {
	v := MustParse("1.2.3+cu118")
	if got := v.Public().String(); got != "1.2.3" {
		t.Errorf("Public() = %q, want %q", got, "1.2.3")
	}
}
