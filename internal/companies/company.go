// Package companies provides the domain system for companies and the jobs
// posted under them.
package companies

import "github.com/JaimeStill/job-board/internal/jobs"

// Collection holds company documents keyed by company id.
const Collection = jobs.CompanyCollection

// Company is a hiring company. Jobs lists the ids of its postings.
type Company struct {
	ID          string   `json:"id"`
	CreatedBy   string   `json:"createdBy"`
	Name        string   `json:"name"`
	Website     string   `json:"website"`
	Description string   `json:"description,omitempty"`
	Jobs        []string `json:"jobs"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// Page is a company with its postings resolved.
type Page struct {
	Company
	Postings []jobs.Job `json:"postings"`
}
