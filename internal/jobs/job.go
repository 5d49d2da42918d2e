// Package jobs provides the domain system for job postings. Jobs belong to a
// company; writes that touch the link keep the company's job list in step
// through atomic batches.
package jobs

// Collection holds job documents keyed by job id.
const Collection = "jobs"

// CompanyCollection holds the companies jobs are posted under.
const CompanyCollection = "companies"

// Job statuses.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Job is a posting as stored in the jobs collection.
type Job struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"companyID"`
	Title         string        `json:"title"`
	Remote        string        `json:"remote"`
	Type          string        `json:"type"`
	Salary        Salary        `json:"salary"`
	Location      Location      `json:"location"`
	ContactPerson ContactPerson `json:"contactPerson"`
	Description   string        `json:"description"`
	Status        string        `json:"status"`
	CreatedAt     string        `json:"createdAt,omitempty"`
	UpdatedAt     string        `json:"updatedAt,omitempty"`
}

// Salary amounts are accepted as numbers or numeric strings.
type Salary struct {
	Amount    any    `json:"amount"`
	Frequency string `json:"frequency"`
}

type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type ContactPerson struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Social string `json:"social,omitempty"`
	Number string `json:"number,omitempty"`
	Image  string `json:"image,omitempty"`
}
