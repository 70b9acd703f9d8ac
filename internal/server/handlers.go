package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lockview/lockview/pkg/depgraph"
	"github.com/lockview/lockview/pkg/errors"
	"github.com/lockview/lockview/pkg/lockfile"
	"github.com/lockview/lockview/pkg/markers"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type lockfileSummary struct {
	Version        int      `json:"version"`
	Revision       int      `json:"revision,omitempty"`
	RequiresPython string   `json:"requires_python,omitempty"`
	Packages       int      `json:"packages"`
	Artifacts      int      `json:"artifacts"`
	Members        []string `json:"members,omitempty"`
}

func (s *Server) handleLockfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, lockfileSummary{
		Version:        s.lf.Version,
		Revision:       s.lf.Revision,
		RequiresPython: s.lf.RequiresPython,
		Packages:       len(s.lf.Packages),
		Artifacts:      s.lf.ArtifactCount(),
		Members:        s.lf.Manifest.Members,
	})
}

type packageSummary struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Source    string `json:"source"`
	Local     bool   `json:"local,omitempty"`
	Artifacts int    `json:"artifacts"`
}

func (s *Server) handlePackages(w http.ResponseWriter, _ *http.Request) {
	out := make([]packageSummary, 0, len(s.lf.Packages))
	for i := range s.lf.Packages {
		pkg := &s.lf.Packages[i]
		out = append(out, packageSummary{
			Name:      lockfile.NormalizeName(pkg.Name),
			Version:   pkg.Version,
			Source:    string(pkg.Source.Kind()),
			Local:     pkg.IsLocal(),
			Artifacts: len(pkg.Artifacts()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type artifactView struct {
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Filename string `json:"filename,omitempty"`
	Hash     string `json:"hash,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Wheel    bool   `json:"wheel"`
}

type dependencyView struct {
	Name   string `json:"name"`
	Marker string `json:"marker,omitempty"`
}

type packageDetail struct {
	Name         string           `json:"name"`
	Version      string           `json:"version"`
	Source       string           `json:"source"`
	SourceValue  string           `json:"source_value,omitempty"`
	Local        bool             `json:"local,omitempty"`
	Dependencies []dependencyView `json:"dependencies,omitempty"`
	Sdist        *artifactView    `json:"sdist,omitempty"`
	Wheels       []artifactView   `json:"wheels,omitempty"`
}

func viewArtifact(a *lockfile.Artifact) artifactView {
	return artifactView{
		URL:      a.URL,
		Path:     a.Path,
		Filename: a.Filename(),
		Hash:     string(a.Hash),
		Size:     a.Size,
		Wheel:    a.IsWheel(),
	}
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	pkg, ok := s.lf.Package(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, string(errors.ErrCodePackageNotFound), "package not in lockfile")
		return
	}

	detail := packageDetail{
		Name:        lockfile.NormalizeName(pkg.Name),
		Version:     pkg.Version,
		Source:      string(pkg.Source.Kind()),
		SourceValue: pkg.Source.Value(),
		Local:       pkg.IsLocal(),
	}
	for _, dep := range pkg.Dependencies {
		detail.Dependencies = append(detail.Dependencies, dependencyView{Name: dep.Name, Marker: dep.Marker})
	}
	if pkg.Sdist != nil {
		v := viewArtifact(pkg.Sdist)
		detail.Sdist = &v
	}
	for i := range pkg.Wheels {
		detail.Wheels = append(detail.Wheels, viewArtifact(&pkg.Wheels[i]))
	}
	writeJSON(w, http.StatusOK, detail)
}

type selectionResponse struct {
	Environment map[string]string `json:"environment"`
	Selected    *artifactView     `json:"selected,omitempty"`
	Artifacts   []artifactView    `json:"artifacts"`
}

// envFromQuery builds a marker environment from platform/machine/python
// query parameters, with a linux/x86_64/3.12 default.
func envFromQuery(r *http.Request) markers.Environment {
	q := r.URL.Query()
	platform := q.Get("platform")
	if platform == "" {
		platform = "linux"
	}
	machine := q.Get("machine")
	if machine == "" {
		machine = "x86_64"
	}
	python := q.Get("python")
	if python == "" {
		python = "3.12"
	}
	return markers.NewEnvironment(platform, machine, python)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	pkg, ok := s.lf.Package(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, string(errors.ErrCodePackageNotFound), "package not in lockfile")
		return
	}

	env := envFromQuery(r)
	resp := selectionResponse{
		Environment: map[string]string{
			"sys_platform":     env.SysPlatform,
			"platform_machine": env.PlatformMachine,
			"python_version":   env.PythonVersion,
		},
		Artifacts: make([]artifactView, 0, len(pkg.Artifacts())),
	}
	for _, a := range pkg.Artifacts() {
		resp.Artifacts = append(resp.Artifacts, viewArtifact(&a))
	}

	chosen, err := pkg.SelectArtifact(env)
	if err != nil {
		status := http.StatusUnprocessableEntity
		writeError(w, status, string(errors.GetCode(err)), errors.UserMessage(err))
		return
	}
	if chosen != nil {
		v := viewArtifact(chosen)
		resp.Selected = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts := depgraph.Options{}
	if q := r.URL.Query(); q.Get("platform") != "" || q.Get("python") != "" || q.Get("machine") != "" {
		env := envFromQuery(r)
		opts.Env = &env
	}

	g, err := depgraph.Build(s.lf, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(errors.GetCode(err)), errors.UserMessage(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = depgraph.WriteJSON(g, w)
}
