package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/pathmatch"
)

func matchCmd() *cobra.Command {
	var (
		engineName string
		compile    []string
		opts       pathmatch.Options
	)

	cmd := &cobra.Command{
		Use:   "match <pattern> [path]",
		Short: "Match a path against a pattern, or build a path from params",
		Long: `Match a path against a route pattern and print the extracted
params, one per line. With --compile, build a path from the pattern
instead.

Examples:
  waypoint match /users/:id/:tab? /users/7/posts
  waypoint match '/files/*path' /files/a/b.txt --engine=chi
  waypoint match /users/:id:int --compile id=42`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			cfg.Engine = engineName
			engine, err := cfg.PatternEngine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pattern := args[0]

			if len(compile) > 0 {
				if len(args) != 1 {
					return errors.New(errors.CodeCLIArgs).
						WithDetail("--compile takes a pattern and no path")
				}
				params, err := parseAssignments(compile)
				if err != nil {
					return err
				}
				build, err := engine.Compile(pattern, pathmatch.CompileOptions{})
				if err != nil {
					return errors.New(errors.CodePatternInvalid).Wrap(err)
				}
				path, err := build(params)
				if err != nil {
					return errors.New(errors.CodePatternCompile).Wrap(err)
				}
				fmt.Fprintln(out, path)
				return nil
			}

			if len(args) != 2 {
				return errors.New(errors.CodeCLIArgs).
					WithDetail("match needs a pattern and a path").
					WithExample("waypoint match /users/:id /users/7")
			}
			match, err := engine.Match(pattern, opts)
			if err != nil {
				return errors.New(errors.CodePatternInvalid).Wrap(err)
			}
			params, ok := match(args[1])
			if !ok {
				return errors.Newf(errors.CategoryPattern, "%s does not match %s", args[1], pattern)
			}
			keys := make([]string, 0, len(params))
			for k := range params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) == 0 {
				fmt.Fprintln(out, "matched (no params)")
			}
			for _, k := range keys {
				fmt.Fprintf(out, "%s=%s\n", k, params[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineName, "engine", "tokens", "Pattern engine: tokens or chi")
	cmd.Flags().StringArrayVar(&compile, "compile", nil, "Build a path from key=value params (repeatable)")
	cmd.Flags().BoolVar(&opts.Sensitive, "sensitive", false, "Match static text case-sensitively")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Disallow a trailing slash")
	cmd.Flags().BoolVar(&opts.Prefix, "prefix", false, "Match a leading run of segments")

	return cmd
}

func parseAssignments(pairs []string) (pathmatch.Params, error) {
	params := make(pathmatch.Params, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, errors.New(errors.CodePatternParams).
				WithDetailf("%q is not key=value", pair).
				WithExample("--compile id=42")
		}
		params[k] = v
	}
	return params, nil
}
