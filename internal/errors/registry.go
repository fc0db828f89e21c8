package errors

import "sort"

// ErrorTemplate is what New copies into an error for its code.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// Registered codes.
const (
	CodeConfigNotFound    = "W100"
	CodeConfigParse       = "W101"
	CodeConfigFormat      = "W102"
	CodeConfigPattern     = "W103"
	CodeConfigDuplicate   = "W104"
	CodeConfigReference   = "W105"
	CodeConfigBindParam   = "W106"
	CodeConfigMatchMode   = "W107"
	CodeConfigLogLevel    = "W108"
	CodeConfigEngine      = "W109"
	CodeScriptSyntax      = "W120"
	CodeScriptCommand     = "W121"
	CodeScriptRouter      = "W122"
	CodeScriptRoute       = "W123"
	CodeScriptExpectation = "W124"
	CodeScriptNavigation  = "W125"
	CodePatternInvalid    = "W140"
	CodePatternCompile    = "W141"
	CodePatternParams     = "W142"
	CodeServeListen       = "W160"
	CodeCLIArgs           = "W180"
	CodeCLIFile           = "W181"
)

// registry holds the built-in codes. DocURL is filled in from docBase
// when a template leaves it empty.
var registry = map[string]ErrorTemplate{
	// Config, W100-W119.

	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The route-tree configuration file does not exist or cannot be read.",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Config parse failed",
		Detail:   "The configuration file is not valid YAML or JSON.",
	},
	CodeConfigFormat: {
		Category: CategoryConfig,
		Message:  "Unknown config format",
		Detail:   "Configuration files must end in .yaml, .yml or .json.",
	},
	CodeConfigPattern: {
		Category: CategoryConfig,
		Message:  "Invalid route pattern",
		Detail:   "A route's pattern could not be compiled by the selected engine.",
	},
	CodeConfigDuplicate: {
		Category: CategoryConfig,
		Message:  "Duplicate name",
		Detail:   "Route, aggregate and router names must be unique across the tree.",
	},
	CodeConfigReference: {
		Category: CategoryConfig,
		Message:  "Unknown reference",
		Detail:   "An aggregate or binding refers to a route or router that is not declared.",
	},
	CodeConfigBindParam: {
		Category: CategoryConfig,
		Message:  "Invalid bind param",
		Detail:   "A binding names a param that does not appear in the route's pattern.",
	},
	CodeConfigMatchMode: {
		Category: CategoryConfig,
		Message:  "Invalid match mode",
		Detail:   "match_mode must be \"accumulate\" or \"live\".",
	},
	CodeConfigLogLevel: {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "log.level must be debug, info, warn or error.",
	},
	CodeConfigEngine: {
		Category: CategoryConfig,
		Message:  "Invalid engine",
		Detail:   "engine must be \"tokens\" or \"chi\".",
	},

	// Scripts, W120-W139.

	CodeScriptSyntax: {
		Category: CategoryScript,
		Message:  "Script syntax error",
		Detail:   "A script line could not be parsed.",
	},
	CodeScriptCommand: {
		Category: CategoryScript,
		Message:  "Unknown script command",
		Detail:   "Commands are navigate, redirect, back, forward, go, on, expect and print.",
	},
	CodeScriptRouter: {
		Category: CategoryScript,
		Message:  "Unknown router",
		Detail:   "An on command names a router that is not in the tree.",
	},
	CodeScriptRoute: {
		Category: CategoryScript,
		Message:  "Unknown route",
		Detail:   "An expect command names a route or aggregate that is not in the tree.",
	},
	CodeScriptExpectation: {
		Category: CategoryScript,
		Message:  "Expectation failed",
		Detail:   "A route's visibility did not match the script's expectation.",
	},
	CodeScriptNavigation: {
		Category: CategoryScript,
		Message:  "Navigation failed",
		Detail:   "A navigate or redirect target was rejected.",
	},

	// The match command, W140-W159.

	CodePatternInvalid: {
		Category: CategoryPattern,
		Message:  "Invalid pattern",
		Detail:   "The pattern could not be parsed or is not supported by the selected engine.",
	},
	CodePatternCompile: {
		Category: CategoryPattern,
		Message:  "Compile failed",
		Detail:   "The params given do not satisfy the pattern.",
	},
	CodePatternParams: {
		Category: CategoryPattern,
		Message:  "Invalid param assignment",
		Detail:   "Params must be given as key=value.",
	},

	// Serve, W160-W179.

	CodeServeListen: {
		Category: CategoryServe,
		Message:  "Listen failed",
		Detail:   "The HTTP server could not bind its address.",
	},

	// Arguments and files, W180-W199.

	CodeCLIArgs: {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was given the wrong number or kind of arguments.",
	},
	CodeCLIFile: {
		Category: CategoryCLI,
		Message:  "File not readable",
		Detail:   "An input file does not exist or cannot be read.",
	},
}

const docBase = "https://waypoint.dev/docs/errors/"

func init() {
	for code, t := range registry {
		registry[code] = withDocURL(code, t)
	}
}

func withDocURL(code string, t ErrorTemplate) ErrorTemplate {
	if t.DocURL == "" {
		t.DocURL = docBase + code
	}
	return t
}

// GetAllCodes returns the registered codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate looks up a registered code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces the template for code.
func Register(code string, template ErrorTemplate) {
	registry[code] = withDocURL(code, template)
}
