package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temcen/vendex/pkg/models"
)

// Engine scores candidate vendors against buyer requirements. It holds only
// the configured weight profiles and is safe for concurrent use.
type Engine struct {
	profiles       map[string]WeightProfile
	effective      map[string]map[models.Criterion]float64
	defaultProfile string
}

// NewEngine validates every profile up front so a comparison never fails on
// configuration.
func NewEngine(profiles map[string]WeightProfile, defaultProfile string) (*Engine, error) {
	if len(profiles) == 0 {
		profiles = BuiltinProfiles()
	}
	if defaultProfile == "" {
		defaultProfile = DefaultProfileName
	}

	e := &Engine{
		profiles:       make(map[string]WeightProfile, len(profiles)),
		effective:      make(map[string]map[models.Criterion]float64, len(profiles)),
		defaultProfile: defaultProfile,
	}

	for name, p := range profiles {
		name = strings.ToLower(strings.TrimSpace(name))
		p.Name = name
		effective, err := Renormalize(p.Weights)
		if err != nil {
			return nil, fmt.Errorf("weight profile %q: %w", name, err)
		}
		e.profiles[name] = p
		e.effective[name] = effective
	}

	if _, ok := e.profiles[defaultProfile]; !ok {
		return nil, fmt.Errorf("default weight profile %q is not configured", defaultProfile)
	}
	return e, nil
}

// NewDefaultEngine returns an engine over the built-in profiles.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(BuiltinProfiles(), DefaultProfileName)
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultProfile returns the name of the profile used when a request names none.
func (e *Engine) DefaultProfile() string {
	return e.defaultProfile
}

// Profiles returns the configured profiles sorted by name.
func (e *Engine) Profiles() []models.WeightProfileView {
	views := make([]models.WeightProfileView, 0, len(e.profiles))
	for name, p := range e.profiles {
		views = append(views, models.WeightProfileView{
			Name:        name,
			Description: p.Description,
			Weights:     copyWeights(p.Weights),
			Effective:   copyWeights(e.effective[name]),
			Default:     name == e.defaultProfile,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Name < views[j].Name
	})
	return views
}

// ResolveWeights returns the effective weights for req and the name of their
// source: explicit request weights win over a named profile, which wins over
// the default profile.
func (e *Engine) ResolveWeights(req models.Requirements) (map[models.Criterion]float64, string, error) {
	if req.Weights != nil {
		parsed, err := ParseWeights(req.Weights)
		if err != nil {
			return nil, "", err
		}
		effective, err := Renormalize(parsed)
		if err != nil {
			return nil, "", err
		}
		return effective, CustomProfileName, nil
	}

	name := strings.ToLower(strings.TrimSpace(req.Profile))
	if name == "" {
		name = e.defaultProfile
	}
	effective, ok := e.effective[name]
	if !ok {
		return nil, "", &UnknownProfileError{Profile: req.Profile}
	}
	return copyWeights(effective), name, nil
}

// Compare validates the request, scores and ranks every vendor, and derives
// the savings analysis and recommendations for the top-ranked one.
func (e *Engine) Compare(req models.Requirements, vendors []models.VendorCandidate) (*models.ComparisonResult, error) {
	if len(vendors) < MinVendors {
		return nil, &InsufficientVendorsError{Count: len(vendors)}
	}

	need, err := validateRequirements(req)
	if err != nil {
		return nil, err
	}

	weights, profile, err := e.ResolveWeights(req)
	if err != nil {
		return nil, err
	}

	candidates, err := validateVendors(vendors, need)
	if err != nil {
		return nil, err
	}

	scores := normalize(candidates, need.quantity)
	ranked := rank(candidates, scores, weights)
	figures := measureSavings(ranked, need.quantity)

	results := make([]models.VendorScoreResult, len(ranked))
	for i, r := range ranked {
		results[i] = r.result(need.quantity)
	}

	return &models.ComparisonResult{
		Vendors:         results,
		TopVendor:       results[0],
		Recommendations: advise(need, ranked, figures),
		SavingsAnalysis: figures.analysis(),
		Weights:         weights,
		Profile:         profile,
	}, nil
}

func copyWeights(w map[models.Criterion]float64) map[models.Criterion]float64 {
	out := make(map[models.Criterion]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
