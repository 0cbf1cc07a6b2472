package forms

import (
	"strings"

	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
)

// ApplicationSubject labels every application email.
const ApplicationSubject = "New Nominee Director Application"

const defaultJurisdiction = "England & Wales"

// Step names one page of the application form.
type Step string

const (
	StepPersonal Step = "personal"
	StepCompany  Step = "company"
	StepService  Step = "service"
	StepReview   Step = "review"
)

// Steps lists the application pages in order.
var Steps = []Step{StepPersonal, StepCompany, StepService, StepReview}

// ParseStep resolves a step name from the URL.
func ParseStep(name string) (Step, error) {
	for _, s := range Steps {
		if string(s) == name {
			return s, nil
		}
	}
	return "", ErrUnknownStep
}

// Index is the zero-based position of the step.
func (s Step) Index() int {
	for i, candidate := range Steps {
		if candidate == s {
			return i
		}
	}
	return -1
}

type PersonalDetails struct {
	FirstName string `json:"first_name" validate:"required,max=60"`
	LastName  string `json:"last_name" validate:"required,max=60"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Phone     string `json:"phone" validate:"required,phone"`
}

type CompanyDetails struct {
	CompanyName         string `json:"company_name" validate:"required,max=160"`
	CompanyNumber       string `json:"company_number" validate:"omitempty,len=8,alphanum"`
	IncorporationStatus string `json:"incorporation_status" validate:"required,oneof=new existing"`
	Jurisdiction        string `json:"jurisdiction" validate:"omitempty,max=60"`
}

type ServiceDetails struct {
	ServiceType string `json:"service_type" validate:"required,oneof=nominee_director nominee_shareholder registered_office full_package"`
	StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Message     string `json:"message" validate:"max=5000"`
}

type Review struct {
	TermsAccepted string `json:"terms_accepted" validate:"required,eq=true"`
}

// Application is the draft built up across steps. Completed counts the
// leading steps that have passed validation.
type Application struct {
	Completed int               `json:"completed"`
	Draft     map[string]string `json:"draft"`
}

// Next returns the first step not yet completed, or "" when all are done.
func (a *Application) Next() Step {
	if a.Completed >= len(Steps) {
		return ""
	}
	return Steps[a.Completed]
}

// Complete reports whether every step has been accepted.
func (a *Application) Complete() bool {
	return a.Completed >= len(Steps)
}

// ApplyStep validates one page and merges it into the draft. A step may be
// re-submitted, but not skipped ahead.
func (a *Application) ApplyStep(step Step, raw map[string]any) error {
	idx := step.Index()
	if idx < 0 {
		return ErrUnknownStep
	}
	if idx > a.Completed {
		return ErrStepOutOfOrder
	}

	fields := textFields(Split(raw).Fields)
	var target any
	switch step {
	case StepPersonal:
		target = &PersonalDetails{}
	case StepCompany:
		target = &CompanyDetails{}
	case StepService:
		target = &ServiceDetails{}
	case StepReview:
		target = &Review{}
	}
	if err := bind(fields, target); err != nil {
		return err
	}
	if company, ok := target.(*CompanyDetails); ok && strings.TrimSpace(company.Jurisdiction) == "" {
		company.Jurisdiction = defaultJurisdiction
	}
	if err := Validate(target); err != nil {
		return err
	}
	values, err := flatten(target)
	if err != nil {
		return err
	}

	if a.Draft == nil {
		a.Draft = make(map[string]string)
	}
	// A revisit replaces the whole step, so cleared fields must not linger.
	for _, k := range jsonKeys(target) {
		delete(a.Draft, k)
	}
	for k, v := range values {
		a.Draft[k] = v
	}
	if idx+1 > a.Completed {
		a.Completed = idx + 1
	}
	return nil
}

// FullName joins the applicant's first and last name.
func (a *Application) FullName() string {
	return strings.TrimSpace(a.Draft["first_name"] + " " + a.Draft["last_name"])
}

// Payload assembles the relay payload for a finished application.
func (a *Application) Payload(autoResponse string) (formsubmit.Payload, error) {
	if !a.Complete() {
		return nil, ErrApplicationIncomplete
	}
	fields := make(map[string]string, len(a.Draft)+1)
	for k, v := range a.Draft {
		fields[k] = v
	}
	fields["name"] = a.FullName()
	return formsubmit.AssembleStrings(fields, formsubmit.Control{
		Subject:      ApplicationSubject,
		AutoResponse: autoResponse,
	}), nil
}
