package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagAliases maps long-form spellings onto the canonical flag names.
var flagAliases = map[string]string{
	"bottom-enc":              "b-enc",
	"top-enc":                 "t-enc",
	"output-enc":              "o-enc",
	"bottom-tshift":           "b-shift",
	"top-tshift":              "t-shift",
	"sync-top-to-bottom":      "sync-tb",
	"auto-sync-top-to-bottom": "auto-sync-tb",
}

func normalizeFlagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if canonical, ok := flagAliases[name]; ok {
		name = canonical
	}
	return pflag.NormalizedName(name)
}

// encodingFlag returns the flag value when it was set, otherwise fallback
// from the configuration.
func encodingFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
