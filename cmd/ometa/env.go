package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const globalPrefix = "ometa"

// checkEnvironmentVariables sets the flags that weren't given in the
// command line from OMETA_<FLAG> environment variables
func checkEnvironmentVariables(command *cobra.Command) error {
	var errs []string
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix(globalPrefix)
	visit := func(f *pflag.Flag) {
		name := strings.ReplaceAll(f.Name, "-", "_")
		if !f.Changed && v.IsSet(name) {
			if err := f.Value.Set(fmt.Sprintf("%v", v.Get(name))); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	command.Flags().VisitAll(visit)
	command.InheritedFlags().VisitAll(visit)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to command flags: %s", strings.Join(errs, "; "))
}
