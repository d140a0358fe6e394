// Package searchinfra implements graph-side search over the resume
// property graph: dynamic Cypher filters and facet aggregation.
package searchinfra

import (
	"context"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/search"
)

const defaultQueryTimeout = 60 * time.Second

// Neo4jSearch runs structured filter queries and facet aggregations. It
// shares the graph written by the resume store and relies on its schema:
// shared leaves unique by name and cefr_rank precomputed on proficiencies.
type Neo4jSearch struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4jSearch wraps an already connected driver. The database name may
// be empty to use the server default.
func NewNeo4jSearch(driver neo4j.DriverWithContext, database string) *Neo4jSearch {
	return &Neo4jSearch{
		driver:   driver,
		database: database,
		timeout:  defaultQueryTimeout,
	}
}

// StructuredSearch translates the filters into one Cypher query. Every
// filter narrows the match; the graph assigns no ranking, so rows come
// back newest first.
func (s *Neo4jSearch) StructuredSearch(ctx context.Context, filters search.SearchFilters, limit int) ([]search.StructuredHit, error) {
	if limit <= 0 {
		limit = 10
	}
	query, params := buildStructuredQuery(filters, limit)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		hits := make([]search.StructuredHit, 0, len(records))
		for _, record := range records {
			uid, _ := record.Get("uid")
			name, _ := record.Get("name")
			email, _ := record.Get("email")
			createdAt, _ := record.Get("created_at")
			hits = append(hits, search.StructuredHit{
				UID:       kernel.NewResumeUID(asString(uid)),
				Name:      asString(name),
				Email:     asString(email),
				CreatedAt: msToTime(createdAt),
			})
		}
		return hits, nil
	})
	if err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.CodeGraphUnavailable, err)
	}
	return out.([]search.StructuredHit), nil
}

// buildStructuredQuery assembles the WHERE clause from the set filters.
// Subquery predicates keep each condition independent so the planner can
// start from whichever index is most selective.
func buildStructuredQuery(f search.SearchFilters, limit int) (string, map[string]any) {
	var conditions []string
	params := map[string]any{"limit": limit}

	if len(f.Skills) > 0 {
		conditions = append(conditions, `all(name IN $skills WHERE EXISTS {
    MATCH (r)-[:HAS_SKILL]->(s:Skill) WHERE toLower(s.name) = toLower(name) })`)
		params["skills"] = f.Skills
	}
	if f.Role != "" {
		conditions = append(conditions, `EXISTS {
    MATCH (r)-[:HAS_PROFESSIONAL_PROFILE]->(:ProfessionalProfile)-[:HAS_PREFERENCES]->(p:Preferences)
    WHERE toLower(p.role) CONTAINS toLower($role) }`)
		params["role"] = f.Role
	}
	if f.Company != "" {
		conditions = append(conditions, `EXISTS {
    MATCH (r)-[:HAS_EMPLOYMENT_HISTORY]->(:EmploymentHistoryItem)-[:WORKED_AT]->(c:CompanyInfo)
    WHERE toLower(c.name) = toLower($company) }`)
		params["company"] = f.Company
	}
	if len(f.Locations) > 0 {
		conditions = append(conditions, `any(req IN $locations WHERE EXISTS {
    MATCH (r)-[:HAS_PERSONAL_INFO]->(:PersonalInfo)-[:HAS_DEMOGRAPHICS]->(:Demographics)-[:HAS_LOCATION]->(loc:Location)
    WHERE toLower(loc.country) = toLower(req.country)
      AND (size(req.cities) = 0 OR toLower(loc.city) IN req.cities) })`)
		params["locations"] = locationReqParams(f.Locations)
	}
	if f.YearsExperience != nil {
		conditions = append(conditions, `reduce(months = 0, m IN
    [(r)-[:HAS_EMPLOYMENT_HISTORY]->(:EmploymentHistoryItem)-[:HAS_DURATION]->(d:EmploymentDuration) |
      coalesce(d.duration_months, 0)] | months + m) / 12.0 >= $years_experience`)
		params["years_experience"] = *f.YearsExperience
	}
	if len(f.Education) > 0 {
		conditions = append(conditions, `any(req IN $education WHERE EXISTS {
    MATCH (r)-[:HAS_EDUCATION]->(ed:EducationItem)
    WHERE toLower(ed.qualification) CONTAINS toLower(req.level)
      AND (size(req.statuses) = 0 OR ed.status IN req.statuses) })`)
		params["education"] = educationReqParams(f.Education)
	}
	if len(f.Languages) > 0 {
		conditions = append(conditions, `all(req IN $languages WHERE EXISTS {
    MATCH (r)-[:HAS_LANGUAGE_PROFICIENCY]->(lp:LanguageProficiency)-[:OF_LANGUAGE]->(l:Language)
    WHERE toLower(l.name) = toLower(req.name) AND lp.cefr_rank >= req.min_rank })`)
		params["languages"] = languageReqParams(f.Languages)
	}

	var b strings.Builder
	b.WriteString("MATCH (r:Resume)")
	if len(conditions) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conditions, "\n  AND "))
	}
	b.WriteString(`
WITH r ORDER BY r.created_at DESC, r.uid
LIMIT $limit
OPTIONAL MATCH (r)-[:HAS_PERSONAL_INFO]->(pi:PersonalInfo)
OPTIONAL MATCH (pi)-[:HAS_CONTACT]->(c:Contact)
RETURN r.uid AS uid, r.created_at AS created_at,
       coalesce(pi.name, '') AS name, coalesce(c.email, '') AS email`)
	return b.String(), params
}

func locationReqParams(reqs []search.LocationRequirement) []any {
	out := make([]any, 0, len(reqs))
	for _, req := range reqs {
		cities := make([]any, 0, len(req.Cities))
		for _, city := range req.Cities {
			cities = append(cities, strings.ToLower(city))
		}
		out = append(out, map[string]any{
			"country": req.Country,
			"cities":  cities,
		})
	}
	return out
}

func educationReqParams(reqs []search.EducationRequirement) []any {
	out := make([]any, 0, len(reqs))
	for _, req := range reqs {
		statuses := make([]any, 0, len(req.Statuses))
		for _, status := range req.Statuses {
			statuses = append(statuses, string(status))
		}
		out = append(out, map[string]any{
			"level":    req.Level,
			"statuses": statuses,
		})
	}
	return out
}

func languageReqParams(reqs []search.LanguageRequirement) []any {
	out := make([]any, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, map[string]any{
			"name":     req.Name,
			"min_rank": req.MinCEFR.Rank(),
		})
	}
	return out
}

// Facet queries. Counts are distinct resumes per (parent, child) pair and
// parent totals sum their children; blank child values are dropped from
// the nested lists but still counted in the parent.

const skillFacetQuery = `
MATCH (r:Resume)-[:HAS_SKILL]->(s:Skill)
RETURN s.name AS value, count(DISTINCT r) AS cnt
ORDER BY cnt DESC, value`

const roleFacetQuery = `
MATCH (r:Resume)-[:HAS_PROFESSIONAL_PROFILE]->(:ProfessionalProfile)-[:HAS_PREFERENCES]->(p:Preferences)
WHERE p.role <> ''
RETURN p.role AS value, count(DISTINCT r) AS cnt
ORDER BY cnt DESC, value`

const companyFacetQuery = `
MATCH (r:Resume)-[:HAS_EMPLOYMENT_HISTORY]->(:EmploymentHistoryItem)-[:WORKED_AT]->(c:CompanyInfo)
RETURN c.name AS value, count(DISTINCT r) AS cnt
ORDER BY cnt DESC, value`

const countryFacetQuery = `
MATCH (r:Resume)-[:HAS_PERSONAL_INFO]->(:PersonalInfo)-[:HAS_DEMOGRAPHICS]->(:Demographics)-[:HAS_LOCATION]->(loc:Location)
WHERE loc.country <> ''
WITH loc.country AS country, loc.city AS city, count(DISTINCT r) AS cnt
WITH country, sum(cnt) AS total,
     [e IN collect({value: city, count: cnt}) WHERE e.value <> ''] AS cities
RETURN country, total, cities
ORDER BY total DESC, country`

const educationFacetQuery = `
MATCH (r:Resume)-[:HAS_EDUCATION]->(ed:EducationItem)
WHERE ed.qualification <> ''
WITH ed.qualification AS level, ed.status AS status, count(DISTINCT r) AS cnt
WITH level, sum(cnt) AS total,
     [e IN collect({value: status, count: cnt}) WHERE e.value <> ''] AS statuses
RETURN level, total, statuses
ORDER BY total DESC, level`

const languageFacetQuery = `
MATCH (r:Resume)-[:HAS_LANGUAGE_PROFICIENCY]->(lp:LanguageProficiency)-[:OF_LANGUAGE]->(l:Language)
WITH l.name AS name, lp.cefr AS level, count(DISTINCT r) AS cnt
WITH name, sum(cnt) AS total,
     [e IN collect({value: level, count: cnt}) WHERE e.value <> ''] AS levels
RETURN name, total, levels
ORDER BY total DESC, name`

// FilterOptions aggregates every facet in one read transaction.
func (s *Neo4jSearch) FilterOptions(ctx context.Context) (*search.FilterOptions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		opts := &search.FilterOptions{
			Skills:          []search.FacetCount{},
			Roles:           []search.FacetCount{},
			Companies:       []search.FacetCount{},
			Countries:       []search.CountryFacet{},
			EducationLevels: []search.EducationFacet{},
			Languages:       []search.LanguageFacet{},
		}

		var err error
		if opts.Skills, err = flatFacets(ctx, tx, skillFacetQuery); err != nil {
			return nil, err
		}
		if opts.Roles, err = flatFacets(ctx, tx, roleFacetQuery); err != nil {
			return nil, err
		}
		if opts.Companies, err = flatFacets(ctx, tx, companyFacetQuery); err != nil {
			return nil, err
		}

		countries, err := nestedFacets(ctx, tx, countryFacetQuery, "country", "cities")
		if err != nil {
			return nil, err
		}
		for _, f := range countries {
			opts.Countries = append(opts.Countries, search.CountryFacet{
				Country: f.value, Count: f.count, Cities: f.nested,
			})
		}

		levels, err := nestedFacets(ctx, tx, educationFacetQuery, "level", "statuses")
		if err != nil {
			return nil, err
		}
		for _, f := range levels {
			opts.EducationLevels = append(opts.EducationLevels, search.EducationFacet{
				Level: f.value, Count: f.count, Statuses: f.nested,
			})
		}

		languages, err := nestedFacets(ctx, tx, languageFacetQuery, "name", "levels")
		if err != nil {
			return nil, err
		}
		for _, f := range languages {
			opts.Languages = append(opts.Languages, search.LanguageFacet{
				Name: f.value, Count: f.count, Levels: f.nested,
			})
		}
		return opts, nil
	})
	if err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.CodeGraphUnavailable, err)
	}
	return out.(*search.FilterOptions), nil
}

func flatFacets(ctx context.Context, tx neo4j.ManagedTransaction, query string) ([]search.FacetCount, error) {
	res, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	facets := make([]search.FacetCount, 0, len(records))
	for _, record := range records {
		value, _ := record.Get("value")
		cnt, _ := record.Get("cnt")
		facets = append(facets, search.FacetCount{
			Value: asString(value),
			Count: asInt64(cnt),
		})
	}
	return facets, nil
}

type nestedFacet struct {
	value  string
	count  int64
	nested []search.FacetCount
}

func nestedFacets(ctx context.Context, tx neo4j.ManagedTransaction, query, valueKey, nestedKey string) ([]nestedFacet, error) {
	res, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	facets := make([]nestedFacet, 0, len(records))
	for _, record := range records {
		value, _ := record.Get(valueKey)
		total, _ := record.Get("total")
		children, _ := record.Get(nestedKey)
		facets = append(facets, nestedFacet{
			value:  asString(value),
			count:  asInt64(total),
			nested: childFacets(children),
		})
	}
	return facets, nil
}

// childFacets merges duplicate child values. The facet queries group by
// (parent, child) per resume count, so the same city can appear once per
// count bucket.
func childFacets(value any) []search.FacetCount {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	counts := make(map[string]int64, len(list))
	order := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := asString(m["value"])
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name] += asInt64(m["count"])
	}
	out := make([]search.FacetCount, 0, len(order))
	for _, name := range order {
		out = append(out, search.FacetCount{Value: name, Count: counts[name]})
	}
	return out
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

func msToTime(value any) time.Time {
	ms := asInt64(value)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
