package structurer

import (
	"strconv"
	"strings"
	"time"

	"github.com/hirelens/hirelens/recruitment/resume"
)

// Normalize enforces the document conventions the model is asked for but
// cannot be trusted to always follow: canonical email, deduplicated link
// buckets, January-default start months, computed durations, the closed
// education status and CEFR sets, and country-only locations.
func Normalize(r *resume.Resume) {
	now := time.Now().UTC()
	normalizeContact(r)
	normalizeSkills(r)
	normalizeEmployment(r, now)
	normalizeEducation(r)
	normalizeLanguages(r)
	normalizeLocations(r)
}

func normalizeContact(r *resume.Resume) {
	if r.PersonalInfo == nil {
		return
	}
	r.PersonalInfo.Name = strings.TrimSpace(r.PersonalInfo.Name)
	r.PersonalInfo.Contact.Email = resume.NormalizeEmail(r.PersonalInfo.Contact.Email)

	links := r.PersonalInfo.Contact.Links
	if links == nil {
		return
	}
	claimed := make(map[string]struct{})
	claim := func(raw string) {
		if key := linkKey(raw); key != "" {
			claimed[key] = struct{}{}
		}
	}
	claim(links.LinkedIn)
	claim(links.GitHub)
	claim(links.Portfolio)
	for _, e := range r.EmploymentHistory {
		claim(e.Company.URL)
	}
	for _, p := range r.Projects {
		claim(p.URL)
	}

	var others []string
	for _, raw := range links.OtherLinks {
		key := linkKey(raw)
		if key == "" {
			continue
		}
		if _, dup := claimed[key]; dup {
			continue
		}
		claimed[key] = struct{}{}
		others = append(others, strings.TrimSpace(raw))
	}
	links.OtherLinks = others
}

func normalizeSkills(r *resume.Resume) {
	seen := make(map[string]struct{})
	skills := r.Skills[:0]
	for _, s := range r.Skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, resume.Skill{Name: name})
	}
	r.Skills = skills
}

func normalizeEmployment(r *resume.Resume, now time.Time) {
	for i := range r.EmploymentHistory {
		d := &r.EmploymentHistory[i].Duration
		d.Start = defaultStartMonth(d.Start)
		if d.DurationMonths == 0 {
			if months, ok := monthsBetween(d.Start, d.End, now); ok {
				d.DurationMonths = months
			}
		}
	}
}

// defaultStartMonth turns a bare year into January of that year.
func defaultStartMonth(start string) string {
	start = strings.TrimSpace(start)
	if len(start) == 4 {
		if _, err := strconv.Atoi(start); err == nil {
			return start + "-01"
		}
	}
	return start
}

// monthsBetween computes whole months from start to end. An empty end or
// "present" means the position is current. Year-only end dates are left to
// whatever the model reported, so the computation declines them.
func monthsBetween(start, end string, now time.Time) (int, bool) {
	sy, sm, ok := parseYearMonth(start)
	if !ok {
		return 0, false
	}
	var ey, em int
	switch strings.ToLower(strings.TrimSpace(end)) {
	case "", "present":
		ey, em = now.Year(), int(now.Month())
	default:
		ey, em, ok = parseYearMonth(end)
		if !ok {
			return 0, false
		}
	}
	months := (ey-sy)*12 + (em - sm)
	if months < 0 {
		return 0, false
	}
	return months, true
}

func parseYearMonth(s string) (year, month int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1900 {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

var educationStatusSynonyms = map[string]resume.EducationStatus{
	"completed":   resume.EducationCompleted,
	"complete":    resume.EducationCompleted,
	"graduated":   resume.EducationCompleted,
	"finished":    resume.EducationCompleted,
	"ongoing":     resume.EducationOngoing,
	"in progress": resume.EducationOngoing,
	"current":     resume.EducationOngoing,
	"enrolled":    resume.EducationOngoing,
	"expected":    resume.EducationOngoing,
	"studying":    resume.EducationOngoing,
	"incomplete":  resume.EducationIncomplete,
	"dropped out": resume.EducationIncomplete,
	"unfinished":  resume.EducationIncomplete,
	"abandoned":   resume.EducationIncomplete,
}

func normalizeEducation(r *resume.Resume) {
	for i := range r.Education {
		r.Education[i].Status = normalizeEducationStatus(r.Education[i].Status)
	}
}

func normalizeEducationStatus(status resume.EducationStatus) resume.EducationStatus {
	raw := strings.ToLower(strings.TrimSpace(string(status)))
	if raw == "" {
		return ""
	}
	if mapped, ok := educationStatusSynonyms[raw]; ok {
		return mapped
	}
	// Unrecognized wording almost always describes a degree already held.
	return resume.EducationCompleted
}

func normalizeLanguages(r *resume.Resume) {
	for i := range r.LanguageProficiencies {
		lp := &r.LanguageProficiencies[i]
		lp.Language.Name = strings.TrimSpace(lp.Language.Name)
		lp.CEFR = normalizeCEFR(string(lp.CEFR))
	}
}

func normalizeCEFR(raw string) resume.CEFRLevel {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	switch cleaned {
	case "A1", "A2", "B1", "B2", "C1", "C2":
		return resume.CEFRLevel(cleaned)
	}
	if strings.Contains(strings.ToLower(raw), "native") {
		return resume.CEFRNative
	}
	return ""
}

func normalizeLocations(r *resume.Resume) {
	if r.PersonalInfo != nil && r.PersonalInfo.Demographics != nil {
		fixLocation(r.PersonalInfo.Demographics.Location)
	}
	for i := range r.EmploymentHistory {
		fixLocation(r.EmploymentHistory[i].Location)
	}
	for i := range r.Education {
		fixLocation(r.Education[i].Location)
	}
}

// fixLocation clears a city that merely repeats the country.
func fixLocation(loc *resume.Location) {
	if loc == nil {
		return
	}
	loc.City = strings.TrimSpace(loc.City)
	loc.Country = strings.TrimSpace(loc.Country)
	if loc.City != "" && strings.EqualFold(loc.City, loc.Country) {
		loc.City = ""
	}
}

func linkKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	key := strings.ToLower(raw)
	key = strings.TrimPrefix(key, "https://")
	key = strings.TrimPrefix(key, "http://")
	key = strings.TrimPrefix(key, "www.")
	return strings.TrimRight(key, "/")
}
