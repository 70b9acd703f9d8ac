package markers

import (
	"strings"

	"github.com/lockview/lockview/pkg/errors"
	"github.com/lockview/lockview/pkg/pep440"
)

// Environment holds the marker variable values for a target interpreter
// and platform. Zero-value fields evaluate as empty strings except where
// noted; unknown variable names are an evaluation error.
type Environment struct {
	PythonVersion          string // e.g. "3.12"
	PythonFullVersion      string // e.g. "3.12.4"
	ImplementationName     string // e.g. "cpython"
	ImplementationVersion  string
	OSName                 string // "posix" or "nt"
	SysPlatform            string // e.g. "linux", "darwin", "win32"
	PlatformSystem         string // e.g. "Linux", "Darwin", "Windows"
	PlatformMachine        string // e.g. "x86_64", "arm64"
	PlatformRelease        string
	PlatformVersion        string
	PlatformPythonImpl     string // e.g. "CPython"
	Extra                  string // the active extra, if any
}

// versionVariables compare per PEP 440 rather than lexically.
var versionVariables = map[string]bool{
	"python_version":         true,
	"python_full_version":    true,
	"implementation_version": true,
}

// NewEnvironment builds an Environment for a sys.platform/machine pair and
// a CPython version like "3.12" or "3.12.4".
func NewEnvironment(sysPlatform, machine, pythonVersion string) Environment {
	full := pythonVersion
	if strings.Count(full, ".") == 1 {
		full += ".0"
	}
	short := full
	if parts := strings.Split(full, "."); len(parts) > 2 {
		short = parts[0] + "." + parts[1]
	}

	env := Environment{
		PythonVersion:         short,
		PythonFullVersion:     full,
		ImplementationName:    "cpython",
		ImplementationVersion: full,
		SysPlatform:           sysPlatform,
		PlatformMachine:       machine,
		PlatformPythonImpl:    "CPython",
		OSName:                "posix",
	}

	switch sysPlatform {
	case "linux":
		env.PlatformSystem = "Linux"
	case "darwin":
		env.PlatformSystem = "Darwin"
	case "win32":
		env.PlatformSystem = "Windows"
		env.OSName = "nt"
	}
	return env
}

// Lookup returns the value of a marker variable.
func (e Environment) Lookup(name string) (string, bool) {
	switch name {
	case "python_version":
		return e.PythonVersion, true
	case "python_full_version":
		return e.PythonFullVersion, true
	case "implementation_name":
		return e.ImplementationName, true
	case "implementation_version":
		return e.ImplementationVersion, true
	case "os_name":
		return e.OSName, true
	case "sys_platform":
		return e.SysPlatform, true
	case "platform_system":
		return e.PlatformSystem, true
	case "platform_machine":
		return e.PlatformMachine, true
	case "platform_release":
		return e.PlatformRelease, true
	case "platform_version":
		return e.PlatformVersion, true
	case "platform_python_implementation":
		return e.PlatformPythonImpl, true
	case "extra":
		return e.Extra, true
	}
	return "", false
}

// Evaluate evaluates expr against env. Unknown marker variables are an
// error rather than false: silently dropping a clause could select the
// wrong artifact for a platform.
func Evaluate(expr Expr, env Environment) (bool, error) {
	switch e := expr.(type) {
	case Or:
		for _, t := range e.Terms {
			ok, err := Evaluate(t, env)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case And:
		for _, t := range e.Terms {
			ok, err := Evaluate(t, env)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Comparison:
		return evalComparison(e, env)
	}
	return false, errors.New(errors.ErrCodeInternal, "unknown marker node type %T", expr)
}

// EvaluateString parses and evaluates a marker expression in one step.
func EvaluateString(marker string, env Environment) (bool, error) {
	expr, err := Parse(marker)
	if err != nil {
		return false, err
	}
	return Evaluate(expr, env)
}

func evalComparison(c Comparison, env Environment) (bool, error) {
	lhs, lhsVersion, err := resolveOperand(c.Lhs, env)
	if err != nil {
		return false, err
	}
	rhs, rhsVersion, err := resolveOperand(c.Rhs, env)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	case "===":
		return lhs == rhs, nil
	}

	// Version-valued variables compare per PEP 440; everything else is a
	// plain string comparison.
	if lhsVersion || rhsVersion {
		if ok, err := compareVersions(lhs, c.Op, rhs, lhsVersion); err == nil {
			return ok, nil
		}
		// Unparseable side: fall through to string comparison, the way
		// installers degrade for odd values like "3.13.0rc1+local".
	}
	return compareStrings(lhs, c.Op, rhs), nil
}

// resolveOperand returns the operand value and whether it is version-valued.
func resolveOperand(o Operand, env Environment) (string, bool, error) {
	if !o.IsVar {
		return o.Literal, false, nil
	}
	val, ok := env.Lookup(o.Variable)
	if !ok {
		return "", false, errors.New(errors.ErrCodeInvalidMarker, "unknown marker variable %q", o.Variable)
	}
	return val, versionVariables[o.Variable], nil
}

func compareVersions(lhs, op, rhs string, specOnRight bool) (bool, error) {
	// The variable side is the candidate, the literal side the boundary.
	candidate, boundary := lhs, rhs
	if !specOnRight {
		// Literal on the left: flip the operator around the comparison.
		candidate, boundary = rhs, lhs
		op = flipOp(op)
	}

	v, err := pep440.Parse(candidate)
	if err != nil {
		return false, err
	}
	spec, err := pep440.ParseSpecifier(op + boundary)
	if err != nil {
		return false, err
	}
	return spec.Match(v), nil
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	}
	return op // == != ~= are symmetric enough
}

func compareStrings(lhs, op, rhs string) bool {
	switch op {
	case "==", "~=":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	}
	return false
}
