package resumeinfra

import (
	"fmt"
	"sort"
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// resumeFromProjection rebuilds the aggregate from the nested map the
// projection query returns. Absent optional children come back as nil
// exactly like a freshly structured resume, and sections are re-sorted
// by their stored order property.
func resumeFromProjection(value any) (*resume.Resume, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("graph row: unexpected projection type %T", value)
	}

	r := &resume.Resume{
		UID:       kernel.NewResumeUID(asString(m["uid"])),
		CreatedAt: msToTime(m["created_at"]),
		UpdatedAt: msToTime(m["updated_at"]),
	}

	if pm, ok := m["personal_info"].(map[string]any); ok {
		r.PersonalInfo = personalInfoFrom(pm)
	}
	if pm, ok := m["professional_profile"].(map[string]any); ok {
		r.ProfessionalProfile = profileFrom(pm)
	}

	for _, name := range asStringSlice(m["skills"]) {
		r.Skills = append(r.Skills, resume.Skill{Name: name})
	}
	sort.Slice(r.Skills, func(i, j int) bool { return r.Skills[i].Name < r.Skills[j].Name })

	for _, em := range orderedMaps(m["employment"]) {
		r.EmploymentHistory = append(r.EmploymentHistory, employmentFrom(em))
	}
	for _, pm := range orderedMaps(m["projects"]) {
		r.Projects = append(r.Projects, projectFrom(pm))
	}
	for _, em := range orderedMaps(m["education"]) {
		r.Education = append(r.Education, educationFrom(em))
	}
	for _, cm := range orderedMaps(m["courses"]) {
		r.Courses = append(r.Courses, resume.Course{
			Name:         asString(cm["name"]),
			Organization: asString(cm["organization"]),
			Year:         asString(cm["year"]),
		})
	}
	for _, cm := range orderedMaps(m["certifications"]) {
		r.Certifications = append(r.Certifications, resume.Certification{
			Name:   asString(cm["name"]),
			Issuer: asString(cm["issuer"]),
			Year:   asString(cm["year"]),
		})
	}
	for _, lm := range orderedMaps(m["languages"]) {
		r.LanguageProficiencies = append(r.LanguageProficiencies, resume.LanguageProficiency{
			Language:     resume.Language{Name: asString(lm["language"])},
			SelfAssessed: asString(lm["self_assessed"]),
			CEFR:         resume.CEFRLevel(asString(lm["cefr"])),
		})
	}
	for _, am := range orderedMaps(m["awards"]) {
		r.Awards = append(r.Awards, resume.Award{
			AwardType:   resume.AwardType(asString(am["award_type"])),
			Title:       asString(am["title"]),
			Year:        asString(am["year"]),
			Description: asString(am["description"]),
		})
	}
	for _, pm := range orderedMaps(m["publications"]) {
		r.ScientificContributions = append(r.ScientificContributions, resume.ScientificContribution{
			PublicationType: resume.PublicationType(asString(pm["publication_type"])),
			Title:           asString(pm["title"]),
			Year:            asString(pm["year"]),
			URL:             asString(pm["url"]),
		})
	}
	return r, nil
}

func personalInfoFrom(m map[string]any) *resume.PersonalInfo {
	pi := &resume.PersonalInfo{
		Name:       asString(m["name"]),
		ResumeLang: asString(m["resume_lang"]),
	}
	if cm, ok := m["contact"].(map[string]any); ok {
		pi.Contact = resume.Contact{
			Email: asString(cm["email"]),
			Phone: asString(cm["phone"]),
		}
		if lm, ok := cm["links"].(map[string]any); ok {
			pi.Contact.Links = &resume.ContactLinks{
				LinkedIn:   asString(lm["linkedin"]),
				GitHub:     asString(lm["github"]),
				Portfolio:  asString(lm["portfolio"]),
				OtherLinks: asStringSlice(lm["other_links"]),
			}
		}
	}
	if dm, ok := m["demographics"].(map[string]any); ok {
		demo := &resume.Demographics{
			Location: locationFrom(dm["location"]),
		}
		if wm, ok := dm["work_authorization"].(map[string]any); ok {
			demo.WorkAuthorization = &resume.WorkAuthorization{
				Region: asString(wm["region"]),
				Status: asString(wm["status"]),
			}
		}
		if demo.Location != nil || demo.WorkAuthorization != nil {
			pi.Demographics = demo
		}
	}
	return pi
}

func profileFrom(m map[string]any) *resume.ProfessionalProfile {
	pp := &resume.ProfessionalProfile{Summary: asString(m["summary"])}
	if pm, ok := m["preferences"].(map[string]any); ok {
		pp.Preferences = &resume.Preferences{
			Role:            asString(pm["role"]),
			EmploymentTypes: asStringSlice(pm["employment_types"]),
			WorkModes:       asStringSlice(pm["work_modes"]),
			Salary:          asString(pm["salary"]),
		}
	}
	return pp
}

func employmentFrom(m map[string]any) resume.EmploymentHistoryItem {
	item := resume.EmploymentHistoryItem{
		Position:       asString(m["position"]),
		EmploymentType: asString(m["employment_type"]),
		WorkMode:       asString(m["work_mode"]),
		Location:       locationFrom(m["location"]),
		Technologies:   asStringSlice(m["technologies"]),
		KeyPoints:      keyPointsFrom(m["key_points"]),
	}
	if dm, ok := m["duration"].(map[string]any); ok {
		item.Duration = resume.EmploymentDuration{
			DateFormat:     asString(dm["date_format"]),
			Start:          asString(dm["start"]),
			End:            asString(dm["end"]),
			DurationMonths: asInt(dm["duration_months"]),
		}
	}
	if cm, ok := m["company"].(map[string]any); ok {
		item.Company = resume.CompanyInfo{
			Name: asString(cm["name"]),
			URL:  asString(cm["url"]),
		}
	}
	return item
}

func projectFrom(m map[string]any) resume.Project {
	return resume.Project{
		Title:        asString(m["title"]),
		URL:          asString(m["url"]),
		Technologies: asStringSlice(m["technologies"]),
		KeyPoints:    keyPointsFrom(m["key_points"]),
	}
}

func educationFrom(m map[string]any) resume.EducationItem {
	item := resume.EducationItem{
		Qualification: asString(m["qualification"]),
		Field:         asString(m["field"]),
		Institution:   resume.InstitutionInfo{Name: asString(m["institution"])},
		Status:        resume.EducationStatus(asString(m["status"])),
		Location:      locationFrom(m["location"]),
	}
	for _, cw := range orderedMaps(m["coursework"]) {
		item.Coursework = append(item.Coursework, asString(cw["name"]))
	}
	for _, ex := range orderedMaps(m["extras"]) {
		item.Extras = append(item.Extras, asString(ex["text"]))
	}
	return item
}

func locationFrom(value any) *resume.Location {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	city, country := asString(m["city"]), asString(m["country"])
	if city == "" && country == "" {
		return nil
	}
	return &resume.Location{City: city, Country: country}
}

func keyPointsFrom(value any) []resume.KeyPoint {
	maps := orderedMaps(value)
	if len(maps) == 0 {
		return nil
	}
	points := make([]resume.KeyPoint, 0, len(maps))
	for _, kp := range maps {
		points = append(points, resume.KeyPoint{Text: asString(kp["text"])})
	}
	return points
}

// orderedMaps converts a projection list to maps sorted by their order
// property. Pattern comprehensions return rows in storage order, which is
// not the document order.
func orderedMaps(value any) []map[string]any {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	maps := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			maps = append(maps, m)
		}
	}
	sort.SliceStable(maps, func(i, j int) bool {
		return asInt64(maps[i]["order"]) < asInt64(maps[j]["order"])
	})
	return maps
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func asInt(value any) int {
	return int(asInt64(value))
}

func asStringSlice(value any) []string {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func msToTime(value any) time.Time {
	ms := asInt64(value)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
