package wheel

import (
	"testing"

	"github.com/lockview/lockview/pkg/markers"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Filename
		wantErr bool
	}{
		{
			name: "msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.whl",
			want: Filename{
				Distribution: "msgspec",
				Version:      "0.19.0",
				PythonTags:   []string{"cp312"},
				AbiTags:      []string{"cp312"},
				PlatformTags: []string{"manylinux_2_17_x86_64"},
			},
		},
		{
			name: "python_dotenv-1.0.1-py3-none-any.whl",
			want: Filename{
				Distribution: "python_dotenv",
				Version:      "1.0.1",
				PythonTags:   []string{"py3"},
				AbiTags:      []string{"none"},
				PlatformTags: []string{"any"},
			},
		},
		{
			name: "six-1.16.0-py2.py3-none-any.whl",
			want: Filename{
				Distribution: "six",
				Version:      "1.16.0",
				PythonTags:   []string{"py2", "py3"},
				AbiTags:      []string{"none"},
				PlatformTags: []string{"any"},
			},
		},
		{
			name: "cryptography-42.0.5-1-cp39-abi3-musllinux_1_1_x86_64.whl",
			want: Filename{
				Distribution: "cryptography",
				Version:      "42.0.5",
				Build:        "1",
				PythonTags:   []string{"cp39"},
				AbiTags:      []string{"abi3"},
				PlatformTags: []string{"musllinux_1_1_x86_64"},
			},
		},
		{name: "msgspec-0.19.0.tar.gz", wantErr: true},
		{name: "msgspec-0.19.0.whl", wantErr: true},
		{name: "a-b-c-d-e-f-g.whl", wantErr: true},
		{name: "msgspec-0.19.0-cp312--any.whl", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilename(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilename(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Distribution != tt.want.Distribution || got.Version != tt.want.Version || got.Build != tt.want.Build {
				t.Errorf("ParseFilename(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
			if len(got.PythonTags) != len(tt.want.PythonTags) || got.PythonTags[0] != tt.want.PythonTags[0] {
				t.Errorf("PythonTags = %v, want %v", got.PythonTags, tt.want.PythonTags)
			}
		})
	}
}

func TestFilename_Tags(t *testing.T) {
	f, err := ParseFilename("six-1.16.0-py2.py3-none-any.whl")
	if err != nil {
		t.Fatal(err)
	}

	tags := f.Tags()
	if len(tags) != 2 {
		t.Fatalf("Tags() returned %d tags, want 2", len(tags))
	}
	if tags[0].String() != "py2-none-any" || tags[1].String() != "py3-none-any" {
		t.Errorf("Tags() = %v, %v", tags[0], tags[1])
	}
}

func TestFilename_IsPure(t *testing.T) {
	pure, _ := ParseFilename("python_dotenv-1.0.1-py3-none-any.whl")
	if !pure.IsPure() {
		t.Error("py3-none-any should be pure")
	}

	binary, _ := ParseFilename("msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.whl")
	if binary.IsPure() {
		t.Error("manylinux wheel should not be pure")
	}
}

func TestMatch(t *testing.T) {
	linux312 := markers.NewEnvironment("linux", "x86_64", "3.12")
	linuxArm := markers.NewEnvironment("linux", "aarch64", "3.12")
	mac := markers.NewEnvironment("darwin", "arm64", "3.12")
	macIntel := markers.NewEnvironment("darwin", "x86_64", "3.12")
	win := markers.NewEnvironment("win32", "AMD64", "3.12")
	linux39 := markers.NewEnvironment("linux", "x86_64", "3.9")

	tests := []struct {
		filename string
		env      markers.Environment
		want     bool
	}{
		{"msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.whl", linux312, true},
		{"msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.whl", linuxArm, false},
		{"msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.whl", mac, false},
		{"msgspec-0.19.0-cp312-cp312-manylinux_2_17_aarch64.whl", linuxArm, true},
		{"msgspec-0.19.0-cp39-cp39-manylinux_2_17_x86_64.whl", linux312, false},
		{"msgspec-0.19.0-cp312-cp312-macosx_11_0_arm64.whl", mac, true},
		{"msgspec-0.19.0-cp312-cp312-macosx_10_9_universal2.whl", mac, true},
		{"msgspec-0.19.0-cp312-cp312-macosx_10_9_universal2.whl", macIntel, true},
		{"msgspec-0.19.0-cp312-cp312-win_amd64.whl", win, true},
		{"msgspec-0.19.0-cp312-cp312-win_amd64.whl", linux312, false},
		{"python_dotenv-1.0.1-py3-none-any.whl", linux312, true},
		{"python_dotenv-1.0.1-py3-none-any.whl", win, true},
		{"cryptography-42.0.5-cp39-abi3-manylinux_2_28_x86_64.whl", linux312, true}, // stable ABI, later interpreter
		{"cryptography-42.0.5-cp39-abi3-manylinux_2_28_x86_64.whl", linux39, true},
		{"oldlib-1.0-py2-none-any.whl", linux312, false},
		{"purelib-1.0-py39-none-any.whl", linux312, true}, // pyXY runs on XY+
		{"purelib-1.0-py313-none-any.whl", linux312, false},
		{"legacy-1.0-cp312-cp312-manylinux1_x86_64.whl", linux312, true},
		{"legacy-1.0-cp312-cp312-linux_x86_64.whl", linux312, true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			f, err := ParseFilename(tt.filename)
			if err != nil {
				t.Fatalf("ParseFilename: %v", err)
			}
			_, got := Match(f, tt.env)
			if got != tt.want {
				t.Errorf("Match(%s) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestMatch_Ranking(t *testing.T) {
	env := markers.NewEnvironment("linux", "x86_64", "3.12")

	exact, _ := ParseFilename("msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.whl")
	abi3, _ := ParseFilename("msgspec-0.19.0-cp39-abi3-manylinux_2_17_x86_64.whl")
	pure, _ := ParseFilename("msgspec-0.19.0-py3-none-any.whl")

	exactScore, ok := Match(exact, env)
	if !ok {
		t.Fatal("exact wheel should match")
	}
	abi3Score, ok := Match(abi3, env)
	if !ok {
		t.Fatal("abi3 wheel should match")
	}
	pureScore, ok := Match(pure, env)
	if !ok {
		t.Fatal("pure wheel should match")
	}

	if !(exactScore > abi3Score && abi3Score > pureScore) {
		t.Errorf("ranking = exact %d, abi3 %d, pure %d; want strictly decreasing",
			exactScore, abi3Score, pureScore)
	}
}
