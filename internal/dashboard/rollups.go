// Package dashboard derives the portfolio overview shown to staff:
// project counts by status, type, year and client, plus financial totals.
package dashboard

import (
	"sort"
	"strconv"

	"gitlab.com/clientdesk/billing-bot/internal/finance"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

const (
	// UnknownYear buckets projects whose start date cannot be parsed.
	UnknownYear = "unknown"
	// UnknownClient names clients referenced by projects but not found.
	UnknownClient = "Unknown"
	// UnspecifiedType buckets projects without a project type.
	UnspecifiedType = "Unspecified"
)

// YearTypeCount is the number of projects of one type started in one year.
type YearTypeCount struct {
	Year        string
	ProjectType string
	Count       int
}

// ClientCount is the number of projects held by one client.
type ClientCount struct {
	ClientID   int64
	ClientName string
	Count      int
}

// Overview bundles every dashboard rollup.
type Overview struct {
	ClientCount   int
	ByStatus      map[models.ProjectStatus]int
	OngoingByType map[string]int
	ByYearAndType []YearTypeCount
	ByClient      []ClientCount
	Totals        finance.Totals
}

// Build computes the overview from the full client and project lists.
func Build(clients []models.Client, projects []models.Project) Overview {
	return Overview{
		ClientCount:   len(clients),
		ByStatus:      ByStatus(projects),
		OngoingByType: OngoingByType(projects),
		ByYearAndType: ByYearAndType(projects),
		ByClient:      ByClient(projects, clients),
		Totals:        finance.Rollup(projects),
	}
}

// ByStatus counts projects per known status. All known statuses are present,
// projects with any other status are not counted.
func ByStatus(projects []models.Project) map[models.ProjectStatus]int {
	counts := make(map[models.ProjectStatus]int, len(models.KnownStatuses))
	for _, s := range models.KnownStatuses {
		counts[s] = 0
	}
	for _, p := range projects {
		if _, ok := counts[p.Status]; ok {
			counts[p.Status]++
		}
	}
	return counts
}

// OngoingByType counts ongoing projects per project type.
func OngoingByType(projects []models.Project) map[string]int {
	counts := make(map[string]int)
	for _, p := range projects {
		if p.Status == models.StatusOngoing {
			counts[projectType(p)]++
		}
	}
	return counts
}

// ByYearAndType counts projects per start year and type, ordered by year then
// type with UnknownYear last.
func ByYearAndType(projects []models.Project) []YearTypeCount {
	type key struct{ year, projectType string }
	counts := make(map[key]int)
	for _, p := range projects {
		counts[key{year: startYear(p), projectType: projectType(p)}]++
	}

	out := make([]YearTypeCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, YearTypeCount{Year: k.year, ProjectType: k.projectType, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			if (out[i].Year == UnknownYear) != (out[j].Year == UnknownYear) {
				return out[j].Year == UnknownYear
			}
			return out[i].Year < out[j].Year
		}
		return out[i].ProjectType < out[j].ProjectType
	})
	return out
}

// ByClient counts projects per client id, ordered by id.
func ByClient(projects []models.Project, clients []models.Client) []ClientCount {
	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	counts := make(map[int64]int)
	for _, p := range projects {
		counts[p.ClientID]++
	}

	out := make([]ClientCount, 0, len(counts))
	for id, n := range counts {
		name, ok := names[id]
		if !ok || name == "" {
			name = UnknownClient
		}
		out = append(out, ClientCount{ClientID: id, ClientName: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// SortedKeys returns the keys of counts in alphabetical order.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func startYear(p models.Project) string {
	t, ok := models.ParseDate(p.StartTime)
	if !ok {
		return UnknownYear
	}
	return strconv.Itoa(t.Year())
}

func projectType(p models.Project) string {
	if p.ProjectType == "" {
		return UnspecifiedType
	}
	return p.ProjectType
}
