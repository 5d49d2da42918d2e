package api

import (
	"github.com/JaimeStill/job-board/internal/companies"
	"github.com/JaimeStill/job-board/internal/jobs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Jobs      jobs.System
	Companies companies.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	jobsSys := jobs.New(
		runtime.Docs,
		runtime.Validator,
		runtime.Logger,
	)

	companiesSys := companies.New(
		runtime.Docs,
		jobsSys,
		runtime.Validator,
		runtime.Logger,
	)

	return &Domain{
		Jobs:      jobsSys,
		Companies: companiesSys,
	}
}
