/*
Copyright © 2026 the Convect authors.
This file is part of Convect.

Convect is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Convect is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Convect.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package convectutil wires the convection model into a command-line
// program: configuration handling, the run driver, and exit-code
// conventions.
package convectutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thermalmodel/convect"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the model.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Ra",
			usage: `
              Ra specifies the Rayleigh number of the run. It must be set:
              there is no physically meaningful default.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Pr",
			usage: `
              Pr specifies the Prandtl number, the ratio of viscous to
              thermal diffusion.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Ta",
			usage: `
              Ta specifies the Taylor number measuring the rotation rate.`,
			defaultVal: 1e4,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "theta",
			usage: `
              theta specifies the co-latitude of the simulated box relative
              to the rotation vector, in degrees.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Ly",
			usage: `
              Ly specifies the horizontal extent of the box in units of the
              layer depth.`,
			defaultVal: 4.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Lz",
			usage: `
              Lz specifies the depth of the box.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), plotCmd.Flags()},
		},
		{
			name: "Ny",
			usage: `
              Ny specifies the number of grid points in each horizontal
              direction.`,
			defaultVal: 128,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Nz",
			usage: `
              Nz specifies the number of grid points in the vertical
              direction.`,
			defaultVal: 256,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "tau",
			usage: `
              tau selects the time scaling of the equations: 'viscous' or
              'thermal'.`,
			defaultVal: "viscous",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "maxdt",
			usage: `
              maxdt specifies the upper bound on the adaptive timestep.`,
			defaultVal: 1e-5,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "stop",
			usage: `
              stop specifies the simulation time at which the run finishes.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "currie",
			usage: `
              currie selects the zoned internal heating profile: a cosine
              heating zone above the bottom wall and a matching cooling
              zone below the top wall.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), plotCmd.Flags()},
		},
		{
			name: "kazemi",
			usage: `
              kazemi selects the exponential internal heating profile,
              balanced by uniform cooling.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), plotCmd.Flags()},
		},
		{
			name: "Hwidth",
			usage: `
              Hwidth specifies the width of the heating and cooling zones of
              the zoned profile as a fraction of the zone height.`,
			defaultVal: 0.2,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), plotCmd.Flags()},
		},
		{
			name: "slip",
			usage: `
              slip selects the velocity condition at the walls: 'free' or
              'no'.`,
			defaultVal: "free",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "top",
			usage: `
              top selects the thermal condition at the top wall:
              'insulating', 'vanishing' or 'fixed_flux'.`,
			defaultVal: "insulating",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "bottom",
			usage: `
              bottom selects the thermal condition at the bottom wall:
              'insulating', 'vanishing' or 'fixed_flux'.`,
			defaultVal: "insulating",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "snaps",
			usage: `
              snaps specifies the cadence, in iterations, of full-state
              snapshot writes. Snapshots double as restart states.`,
			defaultVal: 500,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "slices",
			usage: `
              slices specifies the cadence, in iterations, of plane slice
              writes.`,
			defaultVal: 250,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "horiz",
			usage: `
              horiz specifies the cadence, in iterations, of horizontally
              averaged profile writes.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "scalar",
			usage: `
              scalar specifies the cadence, in iterations, of scalar
              time-series writes.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "output",
			usage: `
              output specifies the root of the output directory tree.`,
			shorthand:  "o",
			defaultVal: "DATA/output/",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), plotCmd.Flags()},
		},
		{
			name: "input",
			usage: `
              input specifies the output tree of a previous run to restart
              from. The run continues from the most recent snapshot and the
              saved run parameters override the geometry flags.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "mesh",
			usage: `
              mesh specifies the worker grid as 'R,C'. When empty, a grid is
              derived from the number of available processors.`,
			shorthand:  "m",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "test",
			usage: `
              test runs the model without writing any output.`,
			shorthand:  "t",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "kill",
			usage: `
              kill builds the whole problem and then exits before the first
              iteration, for checking a configuration.`,
			shorthand:  "k",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CONVECT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("convect: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "convect",
	Short: "A rotating convection model.",
	Long: `Convect simulates rotating Rayleigh-Bénard convection in a Cartesian box
that is periodic in the horizontal directions and bounded by walls above
and below. Use the subcommands specified below to access the model
functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'CONVECT_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Convect.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Convect v%s\n", convect.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run integrates the convection equations from the initial state, or from
the most recent snapshot of a previous run when --input is given, until
the stop time is reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := LoadProblem(Cfg)
		if err != nil {
			return err
		}
		return RunProblem(p)
	},
	DisableAutoGenTag: true,
	SilenceUsage:      true,
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot the internal heating profile.",
	Long: `plot draws the internal heating profile and its steady conduction
solution to heat_func.pdf in the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := heatingFromConfig(Cfg)
		if err != nil {
			return err
		}
		return PlotHeating(h, cast.ToFloat64(Cfg.Get("Lz")), Cfg.GetString("output"))
	},
	DisableAutoGenTag: true,
	SilenceUsage:      true,
}
