package aggregate

import (
	"github.com/cockroachdb/errors"

	"forgeqa/internal/logger"
	"forgeqa/internal/report"
)

// Paths locates the three upstream artifacts.
type Paths struct {
	Static  string
	Arch    string
	Pattern string
}

// LoadInputs reads the upstream artifacts. An absent artifact degrades to defaults and is
// logged; a malformed one is returned as an error.
func LoadInputs(paths Paths, crateName string) (Inputs, error) {
	log := logger.Named("aggregate")
	in := Inputs{CrateName: crateName}

	st, err := report.LoadStatic(paths.Static)
	if err != nil {
		return Inputs{}, errors.Wrap(err, "static report")
	}
	if !st.Present {
		log.Warnw("static report absent, using defaults", logger.FieldPath, paths.Static)
	}
	in.Static = st.Report

	ar, err := report.LoadArch(paths.Arch)
	if err != nil {
		return Inputs{}, errors.Wrap(err, "arch report")
	}
	if !ar.Present {
		log.Warnw("arch report absent, using defaults", logger.FieldPath, paths.Arch)
	}
	in.Arch = ar.Report

	pa, err := report.LoadPattern(paths.Pattern)
	if err != nil {
		return Inputs{}, errors.Wrap(err, "pattern report")
	}
	if !pa.Present {
		log.Warnw("pattern report absent, using defaults", logger.FieldPath, paths.Pattern)
	}
	in.Pattern = pa.Report

	return in, nil
}
