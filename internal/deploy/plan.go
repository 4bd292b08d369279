package deploy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/4jp/alchemia/internal/intake"
)

// UnspecifiedRepo is the plan bucket for entries routed to an org without a
// pinned repository.
const UnspecifiedRepo = "unspecified"

var (
	unsafeChars    = regexp.MustCompile(`[|"?*:<>]`)
	repeatedDashes = regexp.MustCompile(`-{2,}`)
)

// SanitizeFilename scrubs characters that are unsafe in deploy paths,
// collapses repeated dashes, and trims leading and trailing dashes and
// dots. An empty result becomes "unnamed".
func SanitizeFilename(name string) string {
	s := unsafeChars.ReplaceAllString(name, "-")
	s = repeatedDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "unnamed"
	}
	return s
}

// DeployPath renders the in-repo target path for an entry: the classified
// subdirectory plus the sanitized filename.
func DeployPath(e *intake.Entry) string {
	subdir := "docs/source-materials/theory/"
	if e.Classification != nil && e.Classification.TargetSubdir != "" {
		subdir = e.Classification.TargetSubdir
	}
	return subdir + SanitizeFilename(e.Filename)
}

// Destination is one org/repo bucket with its per-action entries.
type Destination struct {
	Org       string
	Repo      *string
	Deploy    []*intake.Entry
	Convert   []*intake.Entry
	Reference []*intake.Entry
	Skip      []*intake.Entry
}

// Key renders the plan bucket label, using the unspecified sentinel when no
// repository is pinned.
func (d *Destination) Key() string {
	repo := UnspecifiedRepo
	if d.Repo != nil {
		repo = *d.Repo
	}
	return fmt.Sprintf("%s/%s", d.Org, repo)
}

// Deployable reports whether the destination names a concrete repository
// with at least one deploy entry.
func (d *Destination) Deployable() bool {
	return d.Repo != nil && len(d.Deploy) > 0
}

// Plan is the full deployment plan grouped by destination.
type Plan struct {
	Destinations []*Destination

	byKey map[string]*Destination
}

// BuildPlan groups classified entries into destinations by org and repo,
// bucketing each entry by its action. Entries without a classified status
// or without a target org are excluded. Destinations are ordered by key
// for deterministic iteration.
func BuildPlan(entries []intake.Entry) *Plan {
	p := &Plan{byKey: make(map[string]*Destination)}

	for i := range entries {
		e := &entries[i]
		if e.Classification == nil || e.Classification.TargetOrg == "" {
			continue
		}
		if !e.Classification.Classified() {
			continue
		}

		dest := p.destination(e.Classification.TargetOrg, e.Classification.TargetRepo)
		switch ClassifyAction(e) {
		case ActionDeploy:
			dest.Deploy = append(dest.Deploy, e)
		case ActionConvert:
			dest.Convert = append(dest.Convert, e)
		case ActionReference:
			dest.Reference = append(dest.Reference, e)
		default:
			dest.Skip = append(dest.Skip, e)
		}
	}

	sort.Slice(p.Destinations, func(i, j int) bool {
		return p.Destinations[i].Key() < p.Destinations[j].Key()
	})
	return p
}

func (p *Plan) destination(org string, repo *string) *Destination {
	d := &Destination{Org: org, Repo: repo}
	key := d.Key()

	if existing, ok := p.byKey[key]; ok {
		return existing
	}
	p.byKey[key] = d
	p.Destinations = append(p.Destinations, d)
	return d
}

// Find returns the destination for a plan key.
func (p *Plan) Find(key string) (*Destination, bool) {
	d, ok := p.byKey[key]
	return d, ok
}

// Counts sums the per-action bucket sizes across all destinations.
func (p *Plan) Counts() (deploy, convert, reference, skip int) {
	for _, d := range p.Destinations {
		deploy += len(d.Deploy)
		convert += len(d.Convert)
		reference += len(d.Reference)
		skip += len(d.Skip)
	}
	return deploy, convert, reference, skip
}
