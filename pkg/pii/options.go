package pii

// Tier orders activation tags by specificity. Higher tiers outrank lower
// ones when spans overlap.
type Tier int

const (
	TierCore     Tier = 1
	TierRegion   Tier = 2
	TierIndustry Tier = 3
)

// TierWeight is the priority offset contributed by each tier. Intra-pack
// priorities must stay below this value so that a tier is never outranked by
// a lower one.
const TierWeight = 1000

// TagCore is the activation tag of the always-on pattern set.
const TagCore = "core"

// SupportedRegions lists the recognized region codes.
var SupportedRegions = []string{"au", "us", "gb", "eu", "ae", "sa", "ng", "in", "jp", "cn", "kr", "br"}

// SupportedIndustries lists the recognized industry codes.
var SupportedIndustries = []string{"healthcare", "finance", "legal"}

var (
	regionSet   = toSet(SupportedRegions)
	industrySet = toSet(SupportedIndustries)
)

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsRegion reports whether code is a supported region code.
func IsRegion(code string) bool {
	return regionSet[code]
}

// IsIndustry reports whether code is a supported industry code.
func IsIndustry(code string) bool {
	return industrySet[code]
}

// TierOf returns the tier of an activation tag and whether the tag is known.
func TierOf(tag string) (Tier, bool) {
	switch {
	case tag == TagCore:
		return TierCore, true
	case IsRegion(tag):
		return TierRegion, true
	case IsIndustry(tag):
		return TierIndustry, true
	default:
		return 0, false
	}
}

// GovernOptions selects which region and industry packs are active for a
// call. The zero value activates the core pack only.
type GovernOptions struct {
	// Regions lists lowercase two-letter region codes. Unrecognized codes are ignored.
	Regions []string `json:"regions,omitempty" yaml:"regions,omitempty"`

	// Industry names a single industry pack. Unrecognized values are ignored.
	Industry string `json:"industry,omitempty" yaml:"industry,omitempty"`
}

// ActiveRegions returns the recognized region codes in first-seen order with
// duplicates removed.
func (o GovernOptions) ActiveRegions() []string {
	if len(o.Regions) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(o.Regions))
	out := make([]string, 0, len(o.Regions))
	for _, code := range o.Regions {
		if !IsRegion(code) || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// ActiveIndustry returns the industry code if it is recognized, or "".
func (o GovernOptions) ActiveIndustry() string {
	if IsIndustry(o.Industry) {
		return o.Industry
	}
	return ""
}
