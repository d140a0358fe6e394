package resume

import (
	"math"
	"strings"
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// Resume is the aggregate root persisted to the graph store. Every child
// below it is exclusive to the aggregate except the shared lookup leaves
// (Skill, CompanyInfo, InstitutionInfo, Language), which are merged globally
// by unique name.
type Resume struct {
	UID kernel.ResumeUID `json:"uid,omitempty"`

	PersonalInfo            *PersonalInfo            `json:"personal_info,omitempty"`
	ProfessionalProfile     *ProfessionalProfile     `json:"professional_profile,omitempty"`
	Skills                  []Skill                  `json:"skills,omitempty"`
	EmploymentHistory       []EmploymentHistoryItem  `json:"employment_history,omitempty"`
	Projects                []Project                `json:"projects,omitempty"`
	Education               []EducationItem          `json:"education,omitempty"`
	Courses                 []Course                 `json:"courses,omitempty"`
	Certifications          []Certification          `json:"certifications,omitempty"`
	LanguageProficiencies   []LanguageProficiency    `json:"language_proficiencies,omitempty"`
	Awards                  []Award                  `json:"awards,omitempty"`
	ScientificContributions []ScientificContribution `json:"scientific_contributions,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// PersonalInfo holds identity and contact data.
type PersonalInfo struct {
	Name         string        `json:"name"`
	ResumeLang   string        `json:"resume_lang,omitempty"`
	Contact      Contact       `json:"contact"`
	Demographics *Demographics `json:"demographics,omitempty"`
}

// Contact carries the globally unique email plus phone and links.
type Contact struct {
	Email string        `json:"email"`
	Phone string        `json:"phone,omitempty"`
	Links *ContactLinks `json:"links,omitempty"`
}

// ContactLinks buckets URLs found on the resume.
type ContactLinks struct {
	LinkedIn   string   `json:"linkedin,omitempty"`
	GitHub     string   `json:"github,omitempty"`
	Portfolio  string   `json:"portfolio,omitempty"`
	OtherLinks []string `json:"other_links,omitempty"`
}

// Demographics is optional residency and work-authorization context.
type Demographics struct {
	Location          *Location          `json:"location,omitempty"`
	WorkAuthorization *WorkAuthorization `json:"work_authorization,omitempty"`
}

// Location keeps city empty when only the country is known.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// WorkAuthorization describes the right to work in a region.
type WorkAuthorization struct {
	Region string `json:"region,omitempty"`
	Status string `json:"status,omitempty"`
}

// ProfessionalProfile holds the summary and target preferences.
type ProfessionalProfile struct {
	Summary     string       `json:"summary,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Preferences capture what the candidate is looking for.
type Preferences struct {
	Role            string   `json:"role,omitempty"`
	EmploymentTypes []string `json:"employment_types,omitempty"`
	WorkModes       []string `json:"work_modes,omitempty"`
	Salary          string   `json:"salary,omitempty"`
}

// Skill is a shared lookup leaf; set semantics inside one resume.
type Skill struct {
	Name string `json:"name"`
}

// EmploymentHistoryItem is one position held.
type EmploymentHistoryItem struct {
	Position       string             `json:"position"`
	EmploymentType string             `json:"employment_type,omitempty"`
	WorkMode       string             `json:"work_mode,omitempty"`
	Company        CompanyInfo        `json:"company"`
	Duration       EmploymentDuration `json:"duration"`
	Location       *Location          `json:"location,omitempty"`
	KeyPoints      []KeyPoint         `json:"key_points,omitempty"`
	Technologies   []string           `json:"technologies,omitempty"`
}

// CompanyInfo is a shared lookup leaf keyed by name.
type CompanyInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// EmploymentDuration keeps Start and End as "YYYY-MM" strings; an empty or
// "present" End means the position is ongoing. DateFormat records how the
// resume itself wrote dates.
type EmploymentDuration struct {
	DateFormat     string `json:"date_format,omitempty"`
	Start          string `json:"start,omitempty"`
	End            string `json:"end,omitempty"`
	DurationMonths int    `json:"duration_months"`
}

// KeyPoint is one bullet from an employment item or project.
type KeyPoint struct {
	Text string `json:"text"`
}

// Project is a standalone or work project.
type Project struct {
	Title        string     `json:"title"`
	URL          string     `json:"url,omitempty"`
	Technologies []string   `json:"technologies,omitempty"`
	KeyPoints    []KeyPoint `json:"key_points,omitempty"`
}

// EducationStatus enumerates normalized education states.
type EducationStatus string

const (
	EducationCompleted  EducationStatus = "completed"
	EducationOngoing    EducationStatus = "ongoing"
	EducationIncomplete EducationStatus = "incomplete"
)

// EducationItem is one qualification pursued at an institution.
type EducationItem struct {
	Qualification string          `json:"qualification,omitempty"`
	Field         string          `json:"field,omitempty"`
	Institution   InstitutionInfo `json:"institution"`
	Status        EducationStatus `json:"status,omitempty"`
	Coursework    []string        `json:"coursework,omitempty"`
	Extras        []string        `json:"extras,omitempty"`
	Location      *Location       `json:"location,omitempty"`
}

// InstitutionInfo is a shared lookup leaf keyed by name.
type InstitutionInfo struct {
	Name string `json:"name"`
}

// Course is additional training outside formal education.
type Course struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Year         string `json:"year,omitempty"`
}

// Certification is an earned professional credential.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Year   string `json:"year,omitempty"`
}

// CEFRLevel is the language-proficiency ladder. Native sorts above C2.
type CEFRLevel string

const (
	CEFRA1     CEFRLevel = "A1"
	CEFRA2     CEFRLevel = "A2"
	CEFRB1     CEFRLevel = "B1"
	CEFRB2     CEFRLevel = "B2"
	CEFRC1     CEFRLevel = "C1"
	CEFRC2     CEFRLevel = "C2"
	CEFRNative CEFRLevel = "Native"
)

// Rank orders CEFR levels: A1 < A2 < B1 < B2 < C1 < C2 < Native.
// Unknown levels rank below A1.
func (l CEFRLevel) Rank() int {
	switch l {
	case CEFRA1:
		return 1
	case CEFRA2:
		return 2
	case CEFRB1:
		return 3
	case CEFRB2:
		return 4
	case CEFRC1:
		return 5
	case CEFRC2:
		return 6
	case CEFRNative:
		return 7
	default:
		return 0
	}
}

// AtLeast reports whether l meets the minimum level.
func (l CEFRLevel) AtLeast(min CEFRLevel) bool {
	return l.Rank() >= min.Rank()
}

// Language is a shared lookup leaf keyed by name.
type Language struct {
	Name string `json:"name"`
}

// LanguageProficiency links a resume to a language at a CEFR level.
// SelfAssessed keeps the candidate's own wording ("fluent", "mother
// tongue") alongside the normalized CEFR value.
type LanguageProficiency struct {
	Language     Language  `json:"language"`
	SelfAssessed string    `json:"self_assessed,omitempty"`
	CEFR         CEFRLevel `json:"cefr,omitempty"`
}

// AwardType enumerates award categories.
type AwardType string

const (
	AwardHackathon   AwardType = "hackathon"
	AwardCompetition AwardType = "competition"
	AwardRecognition AwardType = "recognition"
	AwardScholarship AwardType = "scholarship"
	AwardOther       AwardType = "other"
)

// Award is a recognition entry.
type Award struct {
	AwardType   AwardType `json:"award_type,omitempty"`
	Title       string    `json:"title"`
	Year        string    `json:"year,omitempty"`
	Description string    `json:"description,omitempty"`
}

// PublicationType enumerates scientific contribution categories.
type PublicationType string

const (
	PublicationJournalArticle  PublicationType = "journal_article"
	PublicationConferencePaper PublicationType = "conference_paper"
	PublicationPatent          PublicationType = "patent"
	PublicationThesis          PublicationType = "thesis"
	PublicationTechnicalReport PublicationType = "technical_report"
	PublicationOther           PublicationType = "other"
)

// ScientificContribution is a publication, patent or similar output.
type ScientificContribution struct {
	PublicationType PublicationType `json:"publication_type,omitempty"`
	Title           string          `json:"title"`
	Year            string          `json:"year,omitempty"`
	URL             string          `json:"url,omitempty"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// Email returns the normalized contact email, or "" when absent.
func (r *Resume) Email() string {
	if r.PersonalInfo == nil {
		return ""
	}
	return NormalizeEmail(r.PersonalInfo.Contact.Email)
}

// Name returns the candidate name, or "" when absent.
func (r *Resume) Name() string {
	if r.PersonalInfo == nil {
		return ""
	}
	return r.PersonalInfo.Name
}

// Summary returns the professional summary, or "" when absent.
func (r *Resume) Summary() string {
	if r.ProfessionalProfile == nil {
		return ""
	}
	return r.ProfessionalProfile.Summary
}

// PreferredRole returns the target role, or "" when absent.
func (r *Resume) PreferredRole() string {
	if r.ProfessionalProfile == nil || r.ProfessionalProfile.Preferences == nil {
		return ""
	}
	return r.ProfessionalProfile.Preferences.Role
}

// PrimaryLocation renders "City, Country" (or whichever half is known).
func (r *Resume) PrimaryLocation() string {
	if r.PersonalInfo == nil || r.PersonalInfo.Demographics == nil || r.PersonalInfo.Demographics.Location == nil {
		return ""
	}
	loc := r.PersonalInfo.Demographics.Location
	switch {
	case loc.City != "" && loc.Country != "":
		return loc.City + ", " + loc.Country
	case loc.City != "":
		return loc.City
	default:
		return loc.Country
	}
}

// SkillNames returns skill names preserving resume order.
func (r *Resume) SkillNames() []string {
	names := make([]string, 0, len(r.Skills))
	for _, s := range r.Skills {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// HasSkill reports whether the resume lists the skill (case-insensitive).
func (r *Resume) HasSkill(name string) bool {
	for _, s := range r.Skills {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

// CompanyNames returns all employer names preserving resume order.
func (r *Resume) CompanyNames() []string {
	names := make([]string, 0, len(r.EmploymentHistory))
	for _, e := range r.EmploymentHistory {
		if e.Company.Name != "" {
			names = append(names, e.Company.Name)
		}
	}
	return names
}

// TotalYearsOfExperience sums employment durations in years.
func (r *Resume) TotalYearsOfExperience() float64 {
	months := 0
	for _, e := range r.EmploymentHistory {
		if e.Duration.DurationMonths > 0 {
			months += e.Duration.DurationMonths
		}
	}
	return float64(months) / 12.0
}

// RoundedYearsOfExperience is the integer view stored in vector payloads.
func (r *Resume) RoundedYearsOfExperience() int {
	return int(math.Round(r.TotalYearsOfExperience()))
}

// Touch stamps updated_at, and created_at when unset. created_at never
// moves once written.
func (r *Resume) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// NormalizeEmail lowercases and trims an email for identity comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
