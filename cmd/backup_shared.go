package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// tablesFromConfig reads a table-name list from viper and normalizes it for
// the backup service, which matches table names case-insensitively.
func tablesFromConfig(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

// normalizeTables trims and lowercases table names, dropping blanks. A nil
// result means "all tables".
func normalizeTables(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		result = append(result, strings.ToLower(name))
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// bindFlagToViper registers a cobra flag under a viper key so the export and
// import commands accept either flags or config file entries.
func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}
