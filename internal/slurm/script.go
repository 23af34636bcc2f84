package slurm

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"slurmspawn/internal/apperrors"
)

// DefaultDirectives are the sbatch directives used when no admin template
// file is present. Admins override partition, memory and time limit by
// dropping a template at the configured path.
const DefaultDirectives = `#SBATCH --partition=all
#SBATCH --mem=200
#SBATCH --time=2:00:00`

// commentPrefix carries the session port inside the job record. squeue
// reports the comment field back, which is how discovery recovers the
// port after a restart.
const commentPrefix = "#SBATCH --comment="

var scriptTemplate = template.Must(template.New("script").Parse(`#!/bin/bash
{{.CommentDirective}}
#SBATCH --job-name={{.LogicalName}}
#SBATCH --output={{.Home}}/.slurmspawn/session.log
#SBATCH --open-mode=append
#SBATCH --workdir={{.Home}}
#SBATCH --uid={{.Owner}}
#SBATCH --get-user-env=L

{{.Directives}}

PROFILE_DIR={{.Home}}/.slurmspawn/profile
if ! [ -d "$PROFILE_DIR" ]; then
    cp -r {{.ProfileTemplateDir}} "$PROFILE_DIR"
fi

{{range .Exports}}export {{.}}
{{end}}
exec {{.CommandLine}}
`))

// scriptParams feeds scriptTemplate.
type scriptParams struct {
	CommentDirective   string
	LogicalName        string
	Owner              string
	Home               string
	Directives         string
	ProfileTemplateDir string
	Exports            []string
	CommandLine        string
}

// RenderScript produces the full sbatch script for a submission. The
// job-name directive always comes from the request's logical name and is
// placed before the admin directives; a conflicting job-name in the admin
// template would break discovery, so later duplicates are the admin's
// responsibility to avoid.
func RenderScript(req SubmissionRequest, directives, home, profileTemplateDir string) (string, error) {
	if len(req.Command) == 0 {
		return "", apperrors.ParseFailure("slurm.render", "submission command is empty")
	}

	exports := make([]string, 0, len(req.Env))
	for k := range req.Env {
		exports = append(exports, k)
	}
	sort.Strings(exports)
	for i, k := range exports {
		exports[i] = fmt.Sprintf("%s=%s", k, shellQuote(req.Env[k]))
	}

	quoted := make([]string, len(req.Command))
	for i, tok := range req.Command {
		quoted[i] = shellQuote(tok)
	}

	var b strings.Builder
	err := scriptTemplate.Execute(&b, scriptParams{
		CommentDirective:   commentPrefix + strconv.Itoa(req.Port),
		LogicalName:        req.LogicalName,
		Owner:              req.Owner,
		Home:               home,
		Directives:         directives,
		ProfileTemplateDir: profileTemplateDir,
		Exports:            exports,
		CommandLine:        strings.Join(quoted, " "),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// LoadDirectives reads the admin directive template at path, falling back
// to DefaultDirectives when the file does not exist. Any other read error
// is surfaced: a present-but-unreadable template is a config problem, not
// a reason to silently submit with defaults.
func LoadDirectives(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultDirectives, nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// PortFromScript parses the port annotation back out of a rendered
// script. Discovery reads the same value from squeue's comment column;
// this is the in-process round-trip used by tests and by re-attachment
// diagnostics.
func PortFromScript(script string) (int, error) {
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(line, commentPrefix) {
			port, err := strconv.Atoi(strings.TrimPrefix(line, commentPrefix))
			if err != nil {
				return 0, apperrors.ParseFailure("slurm.render",
					"malformed port annotation: "+line)
			}
			return port, nil
		}
	}
	return 0, apperrors.ParseFailure("slurm.render", "no port annotation in script")
}

// shellQuote wraps s in single quotes, escaping embedded quotes, so
// arbitrary command tokens and env values survive the shell.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$`;&|<>(){}*?#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
