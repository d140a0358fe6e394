package resumeinfra

import (
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Schema statements applied at startup. Shared leaf labels are unique by
// name so concurrent upserts merge instead of duplicating; Contact.email
// is unique so one person never owns two resume graphs.
var schemaStatements = []string{
	`CREATE CONSTRAINT resume_uid IF NOT EXISTS FOR (r:Resume) REQUIRE r.uid IS UNIQUE`,
	`CREATE CONSTRAINT contact_email IF NOT EXISTS FOR (c:Contact) REQUIRE c.email IS UNIQUE`,
	`CREATE CONSTRAINT skill_name IF NOT EXISTS FOR (s:Skill) REQUIRE s.name IS UNIQUE`,
	`CREATE CONSTRAINT company_name IF NOT EXISTS FOR (c:CompanyInfo) REQUIRE c.name IS UNIQUE`,
	`CREATE CONSTRAINT institution_name IF NOT EXISTS FOR (i:InstitutionInfo) REQUIRE i.name IS UNIQUE`,
	`CREATE CONSTRAINT language_name IF NOT EXISTS FOR (l:Language) REQUIRE l.name IS UNIQUE`,
	`CREATE INDEX resume_created_at IF NOT EXISTS FOR (r:Resume) ON (r.created_at)`,
}

// findExistingQuery resolves which resume an upsert replaces. Email wins
// over uid so a re-uploaded resume lands on the same person.
const findExistingQuery = `
OPTIONAL MATCH (re:Resume)-[:HAS_PERSONAL_INFO]->(:PersonalInfo)-[:HAS_CONTACT]->(c:Contact)
WHERE $email <> '' AND c.email = $email
WITH re LIMIT 1
OPTIONAL MATCH (ru:Resume)
WHERE $uid <> '' AND ru.uid = $uid
WITH coalesce(re, ru) AS r
WHERE r IS NOT NULL
RETURN r.uid AS uid, r.created_at AS created_at
LIMIT 1`

// exclusiveChildPath enumerates every relationship type that leads to a
// node owned by exactly one resume. Shared leaves (Skill, CompanyInfo,
// InstitutionInfo, Language) are reachable only through WORKED_AT,
// ATTENDED, OF_LANGUAGE and HAS_SKILL, none of which appear here, so a
// cascade can never cross into them.
const exclusiveChildPath = `HAS_PERSONAL_INFO|HAS_CONTACT|HAS_LINKS|HAS_DEMOGRAPHICS|` +
	`HAS_LOCATION|HAS_WORK_AUTHORIZATION|HAS_PROFESSIONAL_PROFILE|HAS_PREFERENCES|` +
	`HAS_EMPLOYMENT_HISTORY|HAS_DURATION|LOCATED_AT|HAS_KEY_POINT|HAS_PROJECT|` +
	`HAS_EDUCATION|INCLUDES_COURSEWORK|HAS_EXTRA|HAS_COURSE|HAS_CERTIFICATION|` +
	`HAS_AWARD|HAS_SCIENTIFIC_CONTRIBUTION|HAS_LANGUAGE_PROFICIENCY`

// cascadeDeleteQuery removes a resume and every node it exclusively owns
// in one statement. The deepest exclusive chain is three hops
// (PersonalInfo -> Contact -> ContactLinks).
const cascadeDeleteQuery = `
MATCH (r:Resume {uid: $uid})
OPTIONAL MATCH (r)-[:` + exclusiveChildPath + `*1..3]->(child)
DETACH DELETE child, r`

const deleteResumeQuery = `
MATCH (r:Resume {uid: $uid})
DETACH DELETE r`

// insertResumeQuery writes the whole resume graph in one statement.
// Optional children travel as 0/1-element lists so FOREACH can skip them;
// ordered sections carry an order property to restore document order on
// read. Shared leaves are merged by their unique name.
const insertResumeQuery = `
CREATE (r:Resume {uid: $uid, created_at: $created_at, updated_at: $updated_at})
WITH r
CALL { WITH r
  UNWIND $personal AS item
  CREATE (pi:PersonalInfo {name: item.name, resume_lang: item.resume_lang})
  CREATE (r)-[:HAS_PERSONAL_INFO]->(pi)
  CREATE (c:Contact) SET c = item.contact
  CREATE (pi)-[:HAS_CONTACT]->(c)
  FOREACH (links IN item.links |
    CREATE (c)-[:HAS_LINKS]->(:ContactLinks {
      linkedin: links.linkedin, github: links.github,
      portfolio: links.portfolio, other_links: links.other_links}))
  FOREACH (demo IN item.demographics |
    CREATE (d:Demographics)
    CREATE (pi)-[:HAS_DEMOGRAPHICS]->(d)
    FOREACH (loc IN demo.location |
      CREATE (d)-[:HAS_LOCATION]->(:Location {city: loc.city, country: loc.country}))
    FOREACH (wa IN demo.work_authorization |
      CREATE (d)-[:HAS_WORK_AUTHORIZATION]->(:WorkAuthorization {region: wa.region, status: wa.status})))
  RETURN count(*) AS c_personal }
CALL { WITH r
  UNWIND $profile AS item
  CREATE (pp:ProfessionalProfile {summary: item.summary})
  CREATE (r)-[:HAS_PROFESSIONAL_PROFILE]->(pp)
  FOREACH (prefs IN item.preferences |
    CREATE (pp)-[:HAS_PREFERENCES]->(:Preferences {
      role: prefs.role, employment_types: prefs.employment_types,
      work_modes: prefs.work_modes, salary: prefs.salary}))
  RETURN count(*) AS c_profile }
CALL { WITH r
  UNWIND $skill_names AS name
  MERGE (s:Skill {name: name})
  CREATE (r)-[:HAS_SKILL]->(s)
  RETURN count(*) AS c_skills }
CALL { WITH r
  UNWIND range(0, size($employment) - 1) AS idx
  WITH r, idx, $employment[idx] AS item
  CREATE (e:EmploymentHistoryItem) SET e = item.props, e.order = idx
  CREATE (r)-[:HAS_EMPLOYMENT_HISTORY]->(e)
  CREATE (d:EmploymentDuration) SET d = item.duration
  CREATE (e)-[:HAS_DURATION]->(d)
  FOREACH (name IN item.company |
    MERGE (c:CompanyInfo {name: name})
    CREATE (e)-[:WORKED_AT {url: item.company_url}]->(c))
  FOREACH (loc IN item.location |
    CREATE (e)-[:LOCATED_AT]->(:Location {city: loc.city, country: loc.country}))
  FOREACH (i IN range(0, size(item.key_points) - 1) |
    CREATE (e)-[:HAS_KEY_POINT]->(:KeyPoint {text: item.key_points[i], order: i}))
  RETURN count(*) AS c_employment }
CALL { WITH r
  UNWIND range(0, size($projects) - 1) AS idx
  WITH r, idx, $projects[idx] AS item
  CREATE (p:Project) SET p = item.props, p.order = idx
  CREATE (r)-[:HAS_PROJECT]->(p)
  FOREACH (i IN range(0, size(item.key_points) - 1) |
    CREATE (p)-[:HAS_KEY_POINT]->(:KeyPoint {text: item.key_points[i], order: i}))
  RETURN count(*) AS c_projects }
CALL { WITH r
  UNWIND range(0, size($education) - 1) AS idx
  WITH r, idx, $education[idx] AS item
  CREATE (ed:EducationItem) SET ed = item.props, ed.order = idx
  CREATE (r)-[:HAS_EDUCATION]->(ed)
  FOREACH (name IN item.institution |
    MERGE (i:InstitutionInfo {name: name})
    CREATE (ed)-[:ATTENDED]->(i))
  FOREACH (i IN range(0, size(item.coursework) - 1) |
    CREATE (ed)-[:INCLUDES_COURSEWORK]->(:Coursework {name: item.coursework[i], order: i}))
  FOREACH (i IN range(0, size(item.extras) - 1) |
    CREATE (ed)-[:HAS_EXTRA]->(:EducationExtra {text: item.extras[i], order: i}))
  FOREACH (loc IN item.location |
    CREATE (ed)-[:LOCATED_AT]->(:Location {city: loc.city, country: loc.country}))
  RETURN count(*) AS c_education }
CALL { WITH r
  UNWIND range(0, size($courses) - 1) AS idx
  WITH r, idx, $courses[idx] AS item
  CREATE (co:Course) SET co = item, co.order = idx
  CREATE (r)-[:HAS_COURSE]->(co)
  RETURN count(*) AS c_courses }
CALL { WITH r
  UNWIND range(0, size($certifications) - 1) AS idx
  WITH r, idx, $certifications[idx] AS item
  CREATE (ce:Certification) SET ce = item, ce.order = idx
  CREATE (r)-[:HAS_CERTIFICATION]->(ce)
  RETURN count(*) AS c_certifications }
CALL { WITH r
  UNWIND range(0, size($languages) - 1) AS idx
  WITH r, idx, $languages[idx] AS item
  CREATE (lp:LanguageProficiency) SET lp = item.props, lp.order = idx
  CREATE (r)-[:HAS_LANGUAGE_PROFICIENCY]->(lp)
  FOREACH (name IN item.language |
    MERGE (l:Language {name: name})
    CREATE (lp)-[:OF_LANGUAGE]->(l))
  RETURN count(*) AS c_languages }
CALL { WITH r
  UNWIND range(0, size($awards) - 1) AS idx
  WITH r, idx, $awards[idx] AS item
  CREATE (a:Award) SET a = item, a.order = idx
  CREATE (r)-[:HAS_AWARD]->(a)
  RETURN count(*) AS c_awards }
CALL { WITH r
  UNWIND range(0, size($publications) - 1) AS idx
  WITH r, idx, $publications[idx] AS item
  CREATE (sc:ScientificContribution) SET sc = item, sc.order = idx
  CREATE (r)-[:HAS_SCIENTIFIC_CONTRIBUTION]->(sc)
  RETURN count(*) AS c_publications }
RETURN r.uid AS uid`

// resumeProjection materializes one resume and all its sections as nested
// maps. head() turns absent optional children into null; section order is
// restored in Go from the order property.
const resumeProjection = `r {
  .uid, .created_at, .updated_at,
  personal_info: head([(r)-[:HAS_PERSONAL_INFO]->(pi:PersonalInfo) | pi {
    .*,
    contact: head([(pi)-[:HAS_CONTACT]->(c:Contact) | c {
      .*,
      links: head([(c)-[:HAS_LINKS]->(cl:ContactLinks) | cl {.*}])
    }]),
    demographics: head([(pi)-[:HAS_DEMOGRAPHICS]->(d:Demographics) | d {
      location: head([(d)-[:HAS_LOCATION]->(loc:Location) | loc {.*}]),
      work_authorization: head([(d)-[:HAS_WORK_AUTHORIZATION]->(wa:WorkAuthorization) | wa {.*}])
    }])
  }]),
  professional_profile: head([(r)-[:HAS_PROFESSIONAL_PROFILE]->(pp:ProfessionalProfile) | pp {
    .*,
    preferences: head([(pp)-[:HAS_PREFERENCES]->(pr:Preferences) | pr {.*}])
  }]),
  skills: [(r)-[:HAS_SKILL]->(s:Skill) | s.name],
  employment: [(r)-[:HAS_EMPLOYMENT_HISTORY]->(e:EmploymentHistoryItem) | e {
    .*,
    company: head([(e)-[w:WORKED_AT]->(c:CompanyInfo) | {name: c.name, url: w.url}]),
    duration: head([(e)-[:HAS_DURATION]->(d:EmploymentDuration) | d {.*}]),
    location: head([(e)-[:LOCATED_AT]->(loc:Location) | loc {.*}]),
    key_points: [(e)-[:HAS_KEY_POINT]->(kp:KeyPoint) | kp {.text, .order}]
  }],
  projects: [(r)-[:HAS_PROJECT]->(p:Project) | p {
    .*,
    key_points: [(p)-[:HAS_KEY_POINT]->(kp:KeyPoint) | kp {.text, .order}]
  }],
  education: [(r)-[:HAS_EDUCATION]->(ed:EducationItem) | ed {
    .*,
    institution: head([(ed)-[:ATTENDED]->(i:InstitutionInfo) | i.name]),
    coursework: [(ed)-[:INCLUDES_COURSEWORK]->(cw:Coursework) | cw {.name, .order}],
    extras: [(ed)-[:HAS_EXTRA]->(ex:EducationExtra) | ex {.text, .order}],
    location: head([(ed)-[:LOCATED_AT]->(loc:Location) | loc {.*}])
  }],
  courses: [(r)-[:HAS_COURSE]->(co:Course) | co {.*}],
  certifications: [(r)-[:HAS_CERTIFICATION]->(ce:Certification) | ce {.*}],
  languages: [(r)-[:HAS_LANGUAGE_PROFICIENCY]->(lp:LanguageProficiency) | lp {
    .*,
    language: head([(lp)-[:OF_LANGUAGE]->(l:Language) | l.name])
  }],
  awards: [(r)-[:HAS_AWARD]->(a:Award) | a {.*}],
  publications: [(r)-[:HAS_SCIENTIFIC_CONTRIBUTION]->(sc:ScientificContribution) | sc {.*}]
} AS resume`

const getResumeQuery = `
MATCH (r:Resume {uid: $uid})
RETURN ` + resumeProjection

const getResumeByEmailQuery = `
MATCH (r:Resume)-[:HAS_PERSONAL_INFO]->(:PersonalInfo)-[:HAS_CONTACT]->(:Contact {email: $email})
WITH r ORDER BY r.created_at DESC LIMIT 1
RETURN ` + resumeProjection

const getResumesByIdsQuery = `
MATCH (r:Resume)
WHERE r.uid IN $uids
RETURN ` + resumeProjection + `
ORDER BY r.created_at DESC`

const listResumesQuery = `
MATCH (r:Resume)
WITH r ORDER BY r.created_at DESC, r.uid
SKIP $skip LIMIT $limit
RETURN ` + resumeProjection

const countResumesQuery = `
MATCH (r:Resume)
RETURN count(r) AS total`

func upsertParams(r *resume.Resume) map[string]any {
	return map[string]any{
		"uid":            r.UID.String(),
		"created_at":     r.CreatedAt.UnixMilli(),
		"updated_at":     r.UpdatedAt.UnixMilli(),
		"personal":       personalParams(r.PersonalInfo),
		"profile":        profileParams(r.ProfessionalProfile),
		"skill_names":    toAnySlice(r.SkillNames()),
		"employment":     employmentParams(r.EmploymentHistory),
		"projects":       projectParams(r.Projects),
		"education":      educationParams(r.Education),
		"courses":        courseParams(r.Courses),
		"certifications": certificationParams(r.Certifications),
		"languages":      languageParams(r.LanguageProficiencies),
		"awards":         awardParams(r.Awards),
		"publications":   publicationParams(r.ScientificContributions),
	}
}

// personalParams leaves the email key out of the contact map when empty,
// otherwise every contactless resume would collide on the Contact.email
// unique constraint.
func personalParams(pi *resume.PersonalInfo) []any {
	if pi == nil {
		return []any{}
	}
	contact := map[string]any{"phone": pi.Contact.Phone}
	if email := resume.NormalizeEmail(pi.Contact.Email); email != "" {
		contact["email"] = email
	}
	return []any{map[string]any{
		"name":         pi.Name,
		"resume_lang":  pi.ResumeLang,
		"contact":      contact,
		"links":        linksParams(pi.Contact.Links),
		"demographics": demographicsParams(pi.Demographics),
	}}
}

func linksParams(links *resume.ContactLinks) []any {
	if links == nil {
		return []any{}
	}
	return []any{map[string]any{
		"linkedin":    links.LinkedIn,
		"github":      links.GitHub,
		"portfolio":   links.Portfolio,
		"other_links": toAnySlice(links.OtherLinks),
	}}
}

func demographicsParams(demo *resume.Demographics) []any {
	if demo == nil {
		return []any{}
	}
	return []any{map[string]any{
		"location":           locationParams(demo.Location),
		"work_authorization": workAuthParams(demo.WorkAuthorization),
	}}
}

func locationParams(loc *resume.Location) []any {
	if loc == nil {
		return []any{}
	}
	return []any{map[string]any{"city": loc.City, "country": loc.Country}}
}

func workAuthParams(wa *resume.WorkAuthorization) []any {
	if wa == nil {
		return []any{}
	}
	return []any{map[string]any{"region": wa.Region, "status": wa.Status}}
}

func profileParams(pp *resume.ProfessionalProfile) []any {
	if pp == nil {
		return []any{}
	}
	return []any{map[string]any{
		"summary":     pp.Summary,
		"preferences": preferencesParams(pp.Preferences),
	}}
}

func preferencesParams(prefs *resume.Preferences) []any {
	if prefs == nil {
		return []any{}
	}
	return []any{map[string]any{
		"role":             prefs.Role,
		"employment_types": toAnySlice(prefs.EmploymentTypes),
		"work_modes":       toAnySlice(prefs.WorkModes),
		"salary":           prefs.Salary,
	}}
}

func employmentParams(items []resume.EmploymentHistoryItem) []any {
	out := make([]any, 0, len(items))
	for _, e := range items {
		out = append(out, map[string]any{
			"props": map[string]any{
				"position":        e.Position,
				"employment_type": e.EmploymentType,
				"work_mode":       e.WorkMode,
				"technologies":    toAnySlice(e.Technologies),
			},
			"duration": map[string]any{
				"date_format":     e.Duration.DateFormat,
				"start":           e.Duration.Start,
				"end":             e.Duration.End,
				"duration_months": e.Duration.DurationMonths,
			},
			"company":     optionalLeaf(e.Company.Name),
			"company_url": e.Company.URL,
			"location":    locationParams(e.Location),
			"key_points":  keyPointTexts(e.KeyPoints),
		})
	}
	return out
}

func projectParams(items []resume.Project) []any {
	out := make([]any, 0, len(items))
	for _, p := range items {
		out = append(out, map[string]any{
			"props": map[string]any{
				"title":        p.Title,
				"url":          p.URL,
				"technologies": toAnySlice(p.Technologies),
			},
			"key_points": keyPointTexts(p.KeyPoints),
		})
	}
	return out
}

func educationParams(items []resume.EducationItem) []any {
	out := make([]any, 0, len(items))
	for _, ed := range items {
		out = append(out, map[string]any{
			"props": map[string]any{
				"qualification": ed.Qualification,
				"field":         ed.Field,
				"status":        string(ed.Status),
			},
			"institution": optionalLeaf(ed.Institution.Name),
			"coursework":  toAnySlice(ed.Coursework),
			"extras":      toAnySlice(ed.Extras),
			"location":    locationParams(ed.Location),
		})
	}
	return out
}

func courseParams(items []resume.Course) []any {
	out := make([]any, 0, len(items))
	for _, c := range items {
		out = append(out, map[string]any{
			"name":         c.Name,
			"organization": c.Organization,
			"year":         c.Year,
		})
	}
	return out
}

func certificationParams(items []resume.Certification) []any {
	out := make([]any, 0, len(items))
	for _, c := range items {
		out = append(out, map[string]any{
			"name":   c.Name,
			"issuer": c.Issuer,
			"year":   c.Year,
		})
	}
	return out
}

// languageParams stores the numeric CEFR rank next to the label so
// structured search can compare levels with a plain >=.
func languageParams(items []resume.LanguageProficiency) []any {
	out := make([]any, 0, len(items))
	for _, lp := range items {
		out = append(out, map[string]any{
			"props": map[string]any{
				"self_assessed": lp.SelfAssessed,
				"cefr":          string(lp.CEFR),
				"cefr_rank":     lp.CEFR.Rank(),
			},
			"language": optionalLeaf(lp.Language.Name),
		})
	}
	return out
}

func awardParams(items []resume.Award) []any {
	out := make([]any, 0, len(items))
	for _, a := range items {
		out = append(out, map[string]any{
			"award_type":  string(a.AwardType),
			"title":       a.Title,
			"year":        a.Year,
			"description": a.Description,
		})
	}
	return out
}

func publicationParams(items []resume.ScientificContribution) []any {
	out := make([]any, 0, len(items))
	for _, p := range items {
		out = append(out, map[string]any{
			"publication_type": string(p.PublicationType),
			"title":            p.Title,
			"year":             p.Year,
			"url":              p.URL,
		})
	}
	return out
}

func keyPointTexts(points []resume.KeyPoint) []any {
	out := make([]any, 0, len(points))
	for _, kp := range points {
		out = append(out, kp.Text)
	}
	return out
}

// optionalLeaf wraps a leaf name in a 0/1-element list so Cypher FOREACH
// can skip the merge when the name is empty.
func optionalLeaf(name string) []any {
	if name == "" {
		return []any{}
	}
	return []any{name}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
