package patterns

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"tork-hq/governance/pkg/pii"
)

// maxIntraPackPriority bounds the priority of a pattern within its pack so
// that tier ordering is never overturned.
const maxIntraPackPriority = pii.TierWeight - 1

// Pattern is a compiled detector. Patterns are immutable after construction
// and safe for concurrent use.
type Pattern struct {
	// ID uniquely identifies the pattern across all packs (e.g. "ae.emirates_id").
	ID string

	// Type is the PII type reported for matches.
	Type pii.PIIType

	// Tag is the activation tag of the pack the pattern belongs to.
	Tag string

	// Tier is the specificity of Tag.
	Tier pii.Tier

	// Rank is the priority within the pack, 0 to 999.
	Rank int

	// Kind is the matching strategy.
	Kind Kind

	matcher Matcher
}

// Priority returns the effective priority used for conflict resolution.
// Any industry pattern outranks any region pattern, which outranks any core
// pattern.
func (p *Pattern) Priority() int {
	return int(p.Tier)*pii.TierWeight + p.Rank
}

// Placeholder returns the redaction token for the pattern's type.
func (p *Pattern) Placeholder() string {
	return p.Type.Placeholder()
}

// FindAll returns every location in text accepted by the pattern.
func (p *Pattern) FindAll(text string) []Location {
	return p.matcher.FindAll(text)
}

// Registry holds every compiled pattern partitioned by activation tag.
// It is built once and is read-only afterwards.
type Registry struct {
	packs map[string][]*Pattern
	size  int
}

type registryConfig struct {
	extra  []extraPack
	logger *slog.Logger
}

type extraPack struct {
	name string
	data []byte
	path string
}

// Option configures registry construction.
type Option func(*registryConfig)

// WithPackData adds an operator-supplied pack from YAML bytes. The pack's
// tag must be "core" or a supported region or industry code.
func WithPackData(name string, data []byte) Option {
	return func(c *registryConfig) {
		c.extra = append(c.extra, extraPack{name: name, data: data})
	}
}

// WithPackFile adds an operator-supplied pack read from a YAML file.
func WithPackFile(path string) Option {
	return func(c *registryConfig) {
		c.extra = append(c.extra, extraPack{name: path, path: path})
	}
}

// WithLogger sets the logger used to report construction.
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// BuiltinTags returns the tags of every embedded pack: core, then regions,
// then industries.
func BuiltinTags() []string {
	tags := make([]string, 0, 1+len(pii.SupportedRegions)+len(pii.SupportedIndustries))
	tags = append(tags, pii.TagCore)
	tags = append(tags, pii.SupportedRegions...)
	tags = append(tags, pii.SupportedIndustries...)
	return tags
}

// NewRegistry compiles the embedded packs plus any extra packs. Any failure
// returns a *pii.ConfigurationError and no registry.
func NewRegistry(opts ...Option) (*Registry, error) {
	cfg := registryConfig{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}

	r := &Registry{packs: make(map[string][]*Pattern)}
	seen := make(map[string]string)

	for _, tag := range BuiltinTags() {
		data, err := EmbeddedPack(tag)
		if err != nil {
			return nil, pii.NewConfigurationError(tag, "", fmt.Errorf("missing embedded pack: %w", err))
		}
		pf, err := ParsePackFile(data)
		if err != nil {
			return nil, pii.NewConfigurationError(tag, "", err)
		}
		if pf.Pack != tag {
			return nil, pii.NewConfigurationError(tag, "", fmt.Errorf("embedded pack declares tag %q", pf.Pack))
		}
		if err := r.add(tag, pf, seen); err != nil {
			return nil, err
		}
	}

	for _, ep := range cfg.extra {
		var (
			pf  *PackFile
			err error
		)
		if ep.path != "" {
			pf, err = LoadPackFile(ep.path)
		} else {
			pf, err = ParsePackFile(ep.data)
		}
		if err != nil {
			return nil, pii.NewConfigurationError(ep.name, "", err)
		}
		if err := r.add(ep.name, pf, seen); err != nil {
			return nil, err
		}
	}

	cfg.logger.Debug("pattern registry built",
		"component", "patterns",
		"patterns", r.size,
		"packs", len(r.packs),
		"extra_packs", len(cfg.extra),
	)
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. The embedded packs
// are expected to always compile.
func MustNewRegistry(opts ...Option) *Registry {
	r, err := NewRegistry(opts...)
	if err != nil {
		panic(fmt.Sprintf("patterns.NewRegistry: %v", err))
	}
	return r
}

// add compiles every enabled pattern of pf into the pack for pf.Pack.
func (r *Registry) add(source string, pf *PackFile, seen map[string]string) error {
	tier, ok := pii.TierOf(pf.Pack)
	if !ok {
		return pii.NewConfigurationError(source, "", fmt.Errorf("unknown pack tag %q", pf.Pack))
	}
	for i := range pf.Patterns {
		pc := &pf.Patterns[i]
		if !pc.isEnabled() {
			continue
		}
		if prev, dup := seen[pc.ID]; dup {
			return pii.NewConfigurationError(source, pc.ID, fmt.Errorf("duplicate pattern id, first defined in %s", prev))
		}
		p, err := compilePattern(pf.Pack, tier, pc)
		if err != nil {
			return pii.NewConfigurationError(source, pc.ID, err)
		}
		seen[pc.ID] = source
		r.packs[pf.Pack] = append(r.packs[pf.Pack], p)
		r.size++
	}
	return nil
}

// compilePattern validates a pattern definition and builds its matcher chain.
func compilePattern(tag string, tier pii.Tier, pc *PatternConfig) (*Pattern, error) {
	if pc.ID == "" {
		return nil, errors.New("pattern id is required")
	}
	typ, err := pii.ParseType(pc.Type)
	if err != nil {
		return nil, err
	}
	if pc.Priority < 0 || pc.Priority > maxIntraPackPriority {
		return nil, fmt.Errorf("priority %d out of range [0, %d]", pc.Priority, maxIntraPackPriority)
	}
	if pc.Regex == "" {
		return nil, errors.New("regex is required")
	}

	expr := pc.Regex
	if pc.CaseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling regex: %w", err)
	}

	kind := pc.Kind
	if kind == "" {
		kind = KindRegex
	}

	var m Matcher = newRegexMatcher(re)
	switch kind {
	case KindRegex:
		if pc.Validator != "" || len(pc.Context) > 0 {
			return nil, errors.New("regex patterns take no validator or context")
		}
	case KindChecksum:
		v, ok := LookupValidator(pc.Validator)
		if !ok {
			return nil, fmt.Errorf("unknown validator %q", pc.Validator)
		}
		m = &checksumMatcher{inner: m, validate: v}
	case KindContext:
		if pc.Validator != "" {
			return nil, errors.New("context patterns take no validator")
		}
		if len(pc.Context) == 0 {
			return nil, errors.New("context patterns require context keywords")
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	if len(pc.Context) > 0 {
		m = newContextMatcher(m, pc.Context, pc.Window)
	}

	return &Pattern{
		ID:      pc.ID,
		Type:    typ,
		Tag:     tag,
		Tier:    tier,
		Rank:    pc.Priority,
		Kind:    kind,
		matcher: m,
	}, nil
}

// Active returns the patterns enabled by opts: the industry pack first, then
// each recognized region in option order, then core. Unrecognized codes are
// ignored. The returned slice is freshly allocated; the patterns are shared.
func (r *Registry) Active(opts pii.GovernOptions) []*Pattern {
	regions := opts.ActiveRegions()
	industry := opts.ActiveIndustry()

	n := len(r.packs[pii.TagCore])
	for _, code := range regions {
		n += len(r.packs[code])
	}
	if industry != "" {
		n += len(r.packs[industry])
	}

	out := make([]*Pattern, 0, n)
	if industry != "" {
		out = append(out, r.packs[industry]...)
	}
	for _, code := range regions {
		out = append(out, r.packs[code]...)
	}
	return append(out, r.packs[pii.TagCore]...)
}

// Pack returns a copy of the patterns registered under tag.
func (r *Registry) Pack(tag string) []*Pattern {
	out := make([]*Pattern, len(r.packs[tag]))
	copy(out, r.packs[tag])
	return out
}

// Len returns the total number of compiled patterns.
func (r *Registry) Len() int {
	return r.size
}
