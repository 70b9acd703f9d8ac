package wheel

import (
	"strconv"
	"strings"

	"github.com/lockview/lockview/pkg/markers"
)

// Match scores: a binary wheel built for the exact interpreter beats a
// stable-ABI wheel, which beats an interpreter-agnostic one. Platform
// specificity breaks ties so cp312-cp312-manylinux outranks py3-none-any.
const (
	scoreExactABI   = 40
	scoreStableABI  = 30
	scoreNoneABI    = 25
	scorePyVersion  = 20
	scoreGenericPy3 = 10

	scorePlatformSpecific = 2
	scorePlatformAny      = 1
)

// Match reports whether the wheel is installable in env, and a priority
// score for ranking multiple compatible wheels (higher is better).
//
// Platform matching is deliberately optimistic about toolchain details a
// lockfile does not record: any manylinux glibc version matches a linux
// environment and any macOS deployment target matches darwin. What it
// never does is match across architectures or operating systems.
func Match(f Filename, env markers.Environment) (int, bool) {
	best := -1
	for _, t := range f.Tags() {
		pyScore, ok := matchPython(t, env)
		if !ok {
			continue
		}
		platScore, ok := matchPlatform(t.Platform, env)
		if !ok {
			continue
		}
		if s := pyScore + platScore; s > best {
			best = s
		}
	}
	return best, best >= 0
}

// matchPython checks the interpreter/ABI half of the tag.
func matchPython(t Tag, env markers.Environment) (int, bool) {
	major, minor, ok := envPython(env)
	if !ok {
		return 0, false
	}

	switch {
	case t.Python == "py"+strconv.Itoa(major):
		return scoreGenericPy3, true
	case strings.HasPrefix(t.Python, "py"):
		// pyXY runs on XY and anything later.
		maj, min, ok := splitTag(t.Python[2:])
		if !ok {
			return 0, false
		}
		if maj == major && min <= minor {
			return scorePyVersion, true
		}
		return 0, false
	case strings.HasPrefix(t.Python, "cp"):
		maj, min, ok := splitTag(t.Python[2:])
		if !ok || maj != major {
			return 0, false
		}
		switch {
		case t.Abi == t.Python: // cpXY-cpXY: exact interpreter only
			if min == minor {
				return scoreExactABI, true
			}
		case t.Abi == "abi3": // stable ABI: XY and later
			if min <= minor {
				return scoreStableABI, true
			}
		case t.Abi == "none":
			if min == minor {
				return scoreNoneABI, true
			}
		}
		return 0, false
	}
	return 0, false
}

// matchPlatform checks the platform half of the tag.
func matchPlatform(plat string, env markers.Environment) (int, bool) {
	if plat == "any" {
		return scorePlatformAny, true
	}

	machine := strings.ToLower(env.PlatformMachine)
	switch env.SysPlatform {
	case "linux":
		if plat == "linux_"+machine {
			return scorePlatformSpecific, true
		}
		// manylinux_X_Y_machine plus the legacy manylinux1/2010/2014 aliases.
		if strings.HasPrefix(plat, "manylinux") && strings.HasSuffix(plat, "_"+machine) {
			return scorePlatformSpecific, true
		}
	case "darwin":
		if !strings.HasPrefix(plat, "macosx_") {
			return 0, false
		}
		arch := plat[strings.LastIndex(plat, "_")+1:]
		// Multi-arch slices: universal2 covers arm64 and x86_64, the older
		// intel/fat builds cover x86_64.
		switch arch {
		case machine, "universal2":
			return scorePlatformSpecific, true
		case "intel", "fat64":
			if machine == "x86_64" {
				return scorePlatformSpecific, true
			}
		}
	case "win32":
		switch plat {
		case "win_amd64":
			if machine == "amd64" || machine == "x86_64" {
				return scorePlatformSpecific, true
			}
		case "win_arm64":
			if machine == "arm64" || machine == "aarch64" {
				return scorePlatformSpecific, true
			}
		case "win32":
			if machine == "x86" || machine == "i386" || machine == "i686" {
				return scorePlatformSpecific, true
			}
		}
	}
	return 0, false
}

// envPython extracts (major, minor) from the environment's python version.
func envPython(env markers.Environment) (int, int, bool) {
	parts := strings.Split(env.PythonVersion, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// splitTag parses the "XY" or "XYZ" digits of a cpXY/pyXY tag, where the
// first digit is the major version and the rest the minor ("312" → 3, 12).
func splitTag(digits string) (int, int, bool) {
	if len(digits) < 2 {
		return 0, 0, false
	}
	major, err1 := strconv.Atoi(digits[:1])
	minor, err2 := strconv.Atoi(digits[1:])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return major, minor, true
}
