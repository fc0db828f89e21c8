package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/pathmatch"
	"github.com/vango-dev/waypoint/pkg/router"
)

const (
	// RootName is the name of the top-level router.
	RootName = "root"

	// DefaultAddr is the default listen address for serve.
	DefaultAddr = ":8080"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "waypoint"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "text"
)

// Config is a route tree plus the settings of the commands that host it.
//
// The root router's fields are inlined at the top level; child routers are
// declared under routers and reached from the root by bindings.
type Config struct {
	RouterConfig `yaml:",inline"`

	// Routers are the child routers. Each gets its own memory backend.
	Routers []RouterConfig `json:"routers,omitempty" yaml:"routers,omitempty"`

	// Engine selects the pattern engine: "tokens" (default) or "chi".
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`

	// Log configures the command's logger.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Serve configures the WebSocket server.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RouterConfig declares one router and what hangs off it.
type RouterConfig struct {
	// Name addresses the router from bindings and scripts. The root is
	// always named "root".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Initial seeds the router's memory backend (default "/").
	Initial []string `json:"initial,omitempty" yaml:"initial,omitempty"`

	// MatchMode is "accumulate" (default) or "live".
	MatchMode string `json:"match_mode,omitempty" yaml:"match_mode,omitempty"`

	Routes []RouteConfig     `json:"routes,omitempty" yaml:"routes,omitempty"`
	Merges []AggregateConfig `json:"merges,omitempty" yaml:"merges,omitempty"`
	Nones  []AggregateConfig `json:"nones,omitempty" yaml:"nones,omitempty"`
}

// RouteConfig declares a route.
type RouteConfig struct {
	Name      string `json:"name" yaml:"name"`
	Pattern   string `json:"pattern" yaml:"pattern"`
	Sensitive bool   `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
	Strict    bool   `json:"strict,omitempty" yaml:"strict,omitempty"`
	Prefix    bool   `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	Bind []BindConfig `json:"bind,omitempty" yaml:"bind,omitempty"`
}

// BindConfig links a route param to a child router.
type BindConfig struct {
	Param  string `json:"param" yaml:"param"`
	Router string `json:"router" yaml:"router"`

	// Separator, when set, stands for "/" inside the param, so a child
	// path "/a/b" travels as "a+b" with separator "+".
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// AggregateConfig declares a merged route over routes of the same router.
type AggregateConfig struct {
	Name   string   `json:"name" yaml:"name"`
	Routes []string `json:"routes" yaml:"routes"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Base is prefixed to hrefs handed to clients.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	// Namespace prefixes the exported metrics.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Tracing wraps each session's backend in OpenTelemetry spans.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// New creates a Config with default values and an empty root router.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a config file. The format follows the extension: .yaml and
// .yml are YAML, .json is JSON. The result has defaults applied and has
// been validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No config found at " + path).
				WithSuggestion("Pass the path to a .yaml or .json route tree")
		}
		return nil, errors.New(errors.CodeConfigNotFound).Wrap(err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		var we *errors.WaypointError
		if stderrors.As(err, &we) && we.Location != nil {
			we.WithLocation(path, we.Location.Line, we.Location.Column)
		}
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or
// ".json"), applies defaults and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, parseError(err, yamlLine(err))
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, parseError(err, jsonLine(data, err))
		}
	default:
		return nil, errors.New(errors.CodeConfigFormat).
			WithDetailf("Unsupported extension %q", ext).
			WithSuggestion("Rename the file to .yaml, .yml or .json")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseError(err error, line int) error {
	we := errors.New(errors.CodeConfigParse).Wrap(err)
	if line > 0 {
		we.Location = &errors.Location{Line: line}
	}
	return we
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func yamlLine(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func jsonLine(data []byte, err error) int {
	var offset int64
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntax):
		offset = syntax.Offset
	case stderrors.As(err, &typ):
		offset = typ.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	c.RouterConfig.Name = RootName
	c.RouterConfig.applyDefaults()
	for i := range c.Routers {
		c.Routers[i].applyDefaults()
	}

	if c.Engine == "" {
		c.Engine = "tokens"
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.Namespace == "" {
		c.Serve.Namespace = DefaultNamespace
	}
}

func (r *RouterConfig) applyDefaults() {
	if len(r.Initial) == 0 {
		r.Initial = []string{"/"}
	}
	if r.MatchMode == "" {
		r.MatchMode = router.MatchAccumulate.String()
	}
}

// Validate checks names, references, patterns and enumerated settings.
func (c *Config) Validate() error {
	engine, err := c.PatternEngine()
	if err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.CodeConfigLogLevel).
			WithDetailf("Unknown log level %q", c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New(errors.CodeConfigLogLevel).
			WithDetailf("Unknown log format %q", c.Log.Format).
			WithSuggestion("Use text or json")
	}

	routers := map[string]bool{RootName: true}
	for _, rc := range c.Routers {
		if rc.Name == "" {
			return errors.New(errors.CodeConfigReference).
				WithDetail("A child router has no name").
				WithExample("routers:\n  - name: tabs\n    initial: [/info]")
		}
		if routers[rc.Name] {
			return errors.New(errors.CodeConfigDuplicate).
				WithDetailf("Router %q is declared twice", rc.Name)
		}
		routers[rc.Name] = true
	}

	names := make(map[string]string)
	for _, rc := range c.All() {
		if err := rc.validate(engine, routers, names); err != nil {
			return err
		}
	}
	return nil
}

func (r *RouterConfig) validate(engine pathmatch.Engine, routers map[string]bool, names map[string]string) error {
	if _, ok := router.ParseMatchMode(r.MatchMode); !ok {
		return errors.New(errors.CodeConfigMatchMode).
			WithDetailf("Router %q has match_mode %q", r.Name, r.MatchMode).
			WithSuggestion("Use accumulate or live")
	}

	claim := func(name, what string) error {
		if name == "" {
			return errors.New(errors.CodeConfigReference).
				WithDetailf("A %s on router %q has no name", what, r.Name)
		}
		if prev, ok := names[name]; ok {
			return errors.New(errors.CodeConfigDuplicate).
				WithDetailf("%q on router %q is already declared on router %q", name, r.Name, prev)
		}
		names[name] = r.Name
		return nil
	}

	local := make(map[string]bool, len(r.Routes))
	for _, rt := range r.Routes {
		if err := claim(rt.Name, "route"); err != nil {
			return err
		}
		local[rt.Name] = true
		if _, err := engine.Match(rt.Pattern, rt.MatchOptions()); err != nil {
			return errors.New(errors.CodeConfigPattern).
				WithDetailf("Route %q", rt.Name).
				Wrap(err)
		}
		bound := make(map[string]bool, len(rt.Bind))
		for _, b := range rt.Bind {
			if err := validateBind(r.Name, rt, b, routers, bound); err != nil {
				return err
			}
		}
	}

	groups := []struct {
		what string
		aggs []AggregateConfig
	}{{"merge", r.Merges}, {"none", r.Nones}}
	for _, group := range groups {
		for _, agg := range group.aggs {
			if err := claim(agg.Name, group.what); err != nil {
				return err
			}
			for _, ref := range agg.Routes {
				if !local[ref] {
					return errors.New(errors.CodeConfigReference).
						WithDetailf("Aggregate %q refers to %q, which is not a route of router %q", agg.Name, ref, r.Name)
				}
			}
		}
	}
	return nil
}

func validateBind(owner string, rt RouteConfig, b BindConfig, routers, bound map[string]bool) error {
	if !routers[b.Router] || b.Router == RootName {
		return errors.New(errors.CodeConfigReference).
			WithDetailf("Route %q binds %q to unknown child router %q", rt.Name, b.Param, b.Router)
	}
	if b.Router == owner {
		return errors.New(errors.CodeConfigReference).
			WithDetailf("Route %q binds to its own router %q", rt.Name, owner)
	}
	if bound[b.Param] {
		return errors.New(errors.CodeConfigBindParam).
			WithDetailf("Route %q binds param %q twice", rt.Name, b.Param)
	}
	if !HasParam(rt.Pattern, b.Param) {
		return errors.New(errors.CodeConfigBindParam).
			WithDetailf("Pattern %q of route %q has no param %q", rt.Pattern, rt.Name, b.Param)
	}
	bound[b.Param] = true
	return nil
}

// HasParam reports whether pattern declares a param called name, as :name
// or *name.
func HasParam(pattern, name string) bool {
	re := regexp.MustCompile(`[:*]` + regexp.QuoteMeta(name) + `(?:[^A-Za-z0-9_]|$)`)
	return re.MatchString(pattern)
}

// All returns the root router followed by the child routers.
func (c *Config) All() []*RouterConfig {
	out := make([]*RouterConfig, 0, 1+len(c.Routers))
	out = append(out, &c.RouterConfig)
	for i := range c.Routers {
		out = append(out, &c.Routers[i])
	}
	return out
}

// PatternEngine returns the engine named by Engine.
func (c *Config) PatternEngine() (pathmatch.Engine, error) {
	switch strings.ToLower(c.Engine) {
	case "", "tokens":
		return pathmatch.Tokens{}, nil
	case "chi":
		return pathmatch.Chi{}, nil
	}
	return nil, errors.New(errors.CodeConfigEngine).
		WithDetailf("Unknown engine %q", c.Engine).
		WithSuggestion("Use tokens or chi")
}

// Mode returns the router's parsed match mode.
func (r *RouterConfig) Mode() router.MatchMode {
	m, _ := router.ParseMatchMode(r.MatchMode)
	return m
}

// MatchOptions returns the route's matcher options.
func (rt RouteConfig) MatchOptions() pathmatch.Options {
	return pathmatch.Options{Sensitive: rt.Sensitive, Strict: rt.Strict, Prefix: rt.Prefix}
}

// Parse returns the param-to-child-path conversion for the binding.
func (b BindConfig) Parse() func(string) string {
	if b.Separator == "" {
		return nil
	}
	return func(raw string) string {
		return router.DefaultParse(strings.ReplaceAll(raw, b.Separator, "/"))
	}
}

// Format returns the child-path-to-param conversion for the binding.
func (b BindConfig) Format() func(string) string {
	if b.Separator == "" {
		return nil
	}
	return func(path string) string {
		return strings.ReplaceAll(router.DefaultFormat(path), "/", b.Separator)
	}
}

// String renders a one-line summary of the tree.
func (c *Config) String() string {
	routes := 0
	for _, rc := range c.All() {
		routes += len(rc.Routes)
	}
	return fmt.Sprintf("%d routers, %d routes, engine %s", 1+len(c.Routers), routes, c.Engine)
}
