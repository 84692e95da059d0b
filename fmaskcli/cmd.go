/*
Copyright © 2024 the fmask-go authors.
This file is part of fmask-go.

fmask-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fmask-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fmask-go.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package fmaskcli builds the command-line front end: a cobra command
// tree bound to a viper configuration, following the same
// options-table-plus-PersistentPreRunE pattern the teacher project
// uses for its own CLI (spec §6).
package fmaskcli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ubarsc/fmask"
	"github.com/ubarsc/fmask/aux"
	"github.com/ubarsc/fmask/ingest"
)

// cmdContext is the background context used for the short-lived
// auxiliary-data fetches a single CLI invocation makes.
func cmdContext() context.Context { return context.Background() }

// Cfg holds the command tree and the viper configuration it is bound
// to, mirroring the teacher's embedding of *viper.Viper in a Cfg type.
type Cfg struct {
	*viper.Viper
	Root   *cobra.Command
	runCmd *cobra.Command
}

var options = []struct {
	name, usage, shorthand string
	defaultVal             interface{}
}{
	{"out_name", "Base name (without extension) for the output label raster.", "", "fmask"},
	{"dilate_cloud", "Dilation radius, in pixels, applied to the final cloud mask.", "", fmask.DefaultDilationRadii.Cloud},
	{"dilate_shadow", "Dilation radius, in pixels, applied to the final cloud-shadow mask.", "", fmask.DefaultDilationRadii.CloudShadow},
	{"dilate_snow", "Dilation radius, in pixels, applied to the final snow mask.", "", fmask.DefaultDilationRadii.Snow},
	{"cloud_threshold", "Dynamic cloud-probability threshold offset tau. 0 uses the sensor default.", "", 0.0},
	{"cloud_probability", "Also write the per-pixel cloud-probability raster.", "", false},
	{"mapzen_api_key", "API key for the Mapzen terrain DEM service.", "", ""},
	{"local_dem_dir", "Directory of local GTOPO30 DEM tiles, consulted if Mapzen fails or is unconfigured.", "", ""},
	{"local_gswo_dir", "Directory of local Global Surface Water Occurrence tiles.", "", ""},
}

// InitializeConfig builds the command tree and registers every flag in
// options against both pflag and viper, so each is settable by flag,
// by config file, or by FMASK_<name> environment variable.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}
	cfg.SetEnvPrefix("FMASK")
	cfg.AutomaticEnv()

	cfg.Root = &cobra.Command{
		Use:   "fmask",
		Short: "Fmask cloud/shadow/snow/water scene classifier.",
		Long: `fmask classifies a Landsat-8 or Sentinel-2 scene into clear, water,
cloud-shadow, snow and cloud classes.

Configuration can be set by flag, by a configuration file (--config), or by
environment variables prefixed FMASK_. Refer to https://github.com/spf13/viper
for details.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run <infile> <out_dir>",
		Short: "Classify a scene and write the label raster.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cfg, args[0], args[1])
		},
		DisableAutoGenTag: true,
	}

	set := cfg.runCmd.Flags()
	set.String("config", "", "Path to a configuration file.")
	cfg.BindPFlag("config", set.Lookup("config"))
	cfg.Root.PersistentFlags().AddFlagSet(set)
	for _, option := range options {
		switch v := option.defaultVal.(type) {
		case string:
			registerString(set, option.name, option.shorthand, v, option.usage)
		case int:
			registerInt(set, option.name, option.shorthand, v, option.usage)
		case float64:
			registerFloat64(set, option.name, option.shorthand, v, option.usage)
		case bool:
			registerBool(set, option.name, option.shorthand, v, option.usage)
		default:
			panic(fmt.Errorf("fmaskcli: unsupported default-value type %T for %q", v, option.name))
		}
		cfg.BindPFlag(option.name, set.Lookup(option.name))
	}

	cfg.Root.AddCommand(cfg.runCmd)
	return cfg
}

func registerString(set *pflag.FlagSet, name, shorthand, def, usage string) {
	if shorthand == "" {
		set.String(name, def, usage)
	} else {
		set.StringP(name, shorthand, def, usage)
	}
}

func registerInt(set *pflag.FlagSet, name, shorthand string, def int, usage string) {
	if shorthand == "" {
		set.Int(name, def, usage)
	} else {
		set.IntP(name, shorthand, def, usage)
	}
}

func registerFloat64(set *pflag.FlagSet, name, shorthand string, def float64, usage string) {
	if shorthand == "" {
		set.Float64(name, def, usage)
	} else {
		set.Float64P(name, shorthand, def, usage)
	}
}

func registerBool(set *pflag.FlagSet, name, shorthand string, def bool, usage string) {
	if shorthand == "" {
		set.Bool(name, def, usage)
	} else {
		set.BoolP(name, shorthand, def, usage)
	}
}

// setConfig finds and reads in the configuration file, if one was given.
func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("fmask: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// runClassify wires the registered ingest detectors and auxiliary-data
// chain to Pipeline.Run, then writes the label raster (spec §2, §6).
func runClassify(cfg *Cfg, infile, outDir string) error {
	log := logrus.StandardLogger()

	registry := ingest.NewRegistry(
		ingest.Landsat8Detector{},
		ingest.Sentinel2Detector{},
	)
	sc, err := registry.Open(infile)
	if err != nil {
		return &fmask.InputError{Path: infile, Err: err}
	}

	demChain := buildDEMChain(cfg)
	req := aux.Request{
		AuxPath:        infile,
		ProjectionRef:  sc.Projection,
		Transform:      sc.Transform,
		XSize:          sc.Cols,
		YSize:          sc.Rows,
		OutResolution:  sc.Sensor.OutResolution(),
		NodataSentinel: aux.NodataElevation,
	}
	var dem *aux.DEM
	if demChain != nil {
		if d, err := demChain.DEM(cmdContext(), req); err == nil {
			dem = d
		} else {
			log.WithError(err).Warn("fmask: DEM auxiliary data unavailable, continuing without it")
		}
	}

	pipelineCfg := fmask.DefaultConfig()
	pipelineCfg.DilationRadii = fmask.DilationRadii{
		Cloud:       cfg.GetInt("dilate_cloud"),
		CloudShadow: cfg.GetInt("dilate_shadow"),
		Snow:        cfg.GetInt("dilate_snow"),
	}
	pipelineCfg.CloudProbabilityThreshold = cfg.GetFloat64("cloud_threshold")
	pipelineCfg.WriteCloudProbability = cfg.GetBool("cloud_probability")

	p := fmask.NewPipeline(pipelineCfg)
	p.Log = log

	labels, diag, err := p.Run(sc, dem, nil)
	if err != nil {
		return err
	}

	outName := cfg.GetString("out_name")
	outPath := filepath.Join(outDir, outName+".labels")
	if err := writeLabels(outPath, labels); err != nil {
		return err
	}
	log.WithField("path", outPath).Info("fmask: wrote label raster")

	if pipelineCfg.WriteCloudProbability {
		probPath := filepath.Join(outDir, outName+"_cloud_probability.raw")
		probBytes := fmask.CloudProbability(diag.OverLandProbability, diag.OverWaterProbability,
			diag.Water, sc.NodataMask, pipelineCfg.LabelCodes.Nodata)
		if err := os.WriteFile(probPath, probBytes, 0o644); err != nil {
			return fmt.Errorf("fmask: failed to write cloud-probability raster: %w", err)
		}
		log.WithField("path", probPath).Info("fmask: wrote cloud-probability raster")
	}

	return nil
}

// buildDEMChain composes the Mapzen and local-GTOPO30 sources in the
// documented retry order (spec §7): Mapzen first, local second.
func buildDEMChain(cfg *Cfg) *aux.Chain {
	var sources []aux.DEMSource
	if key := cfg.GetString("mapzen_api_key"); key != "" {
		if client, err := aux.NewMapzenClient(cmdContext(), aux.WithAPIKey(key)); err == nil {
			sources = append(sources, client)
		}
	}
	if dir := cfg.GetString("local_dem_dir"); dir != "" {
		sources = append(sources, aux.LocalGTOPO30{TileDir: dir})
	}
	if len(sources) == 0 {
		return nil
	}
	return &aux.Chain{Sources: sources}
}

// writeLabels writes the raw per-pixel label bytes, row-major. Encoding
// the output as a georeferenced raster (GeoTIFF, ENVI) is the raster
// I/O collaborator's job, same as decoding input bands (spec.md §1).
func writeLabels(path string, labels *fmask.Labels) error {
	return os.WriteFile(path, labels.Values, 0o644)
}
