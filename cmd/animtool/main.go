// animtool is a CLI utility for inspecting and validating skinned scene dumps.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/marionette/internal/config"
	"github.com/Faultbox/marionette/internal/engine/model"
	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "inspect", "info":
		err = cmdInspect(args)
	case "validate", "check":
		err = cmdValidate(args)
	case "sample":
		err = cmdSample(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animtool - skinned scene dump utility

Usage:
  animtool <command> [options]

Commands:
  inspect <scene.yaml>               Show skeleton, skin and clip information
  validate [-lenient] [-fallback] <scene.yaml>...
                                     Import scenes and report failures
  sample [-t sec] [-n steps] <scene.yaml>
                                     Pose the clip headlessly and print palettes
  config [path]                      Write the default config file

Examples:
  animtool inspect rigs/chain.yaml
  animtool validate -lenient rigs/*.yaml
  animtool sample -t 0.5 rigs/chain.yaml
  animtool config ./config.yaml`)
}

// errUsage is reported after a usage line was already printed.
var errUsage = errors.New("invalid arguments")

// commonFlags registers the import switches shared by the commands.
type commonFlags struct {
	lenient  *bool
	fallback *bool
	verbose  *bool
}

func newCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		lenient:  fs.Bool("lenient", false, "Map unknown joints to bone 0 instead of failing"),
		fallback: fs.Bool("fallback", false, "Use the bind pose for joints missing from a keyframe"),
		verbose:  fs.Bool("v", false, "Log import details"),
	}
}

func (c commonFlags) options() model.LoadOptions {
	return model.LoadOptions{
		LenientJoints:    *c.lenient,
		BindPoseFallback: *c.fallback,
	}
}

func (c commonFlags) initLogger() {
	if *c.verbose {
		if err := logger.Init("debug", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		}
	}
}

func cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	common := newCommonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: animtool inspect <scene.yaml>")
		return errUsage
	}
	common.initLogger()

	doc, err := dae.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	return inspect(os.Stdout, fs.Arg(0), doc, common.options())
}

func inspect(w io.Writer, name string, doc *dae.Document, opts model.LoadOptions) error {
	fmt.Fprintf(w, "Scene:     %s\n", name)
	fmt.Fprintf(w, "Up axis:   %s\n", doc.UpAxis)

	m, err := model.Load(doc, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Vertices:  %d\n", len(m.Vertices))
	fmt.Fprintf(w, "Triangles: %d\n", len(m.Indices)/3)

	if !m.Animated() {
		fmt.Fprintln(w, "Static mesh (no skin or no animation)")
		return nil
	}

	clip := m.Player.Clip()
	fmt.Fprintf(w, "Joints:    %d\n", m.Skeleton.Len())
	fmt.Fprintf(w, "Keyframes: %d\n", clip.Len())
	fmt.Fprintf(w, "Duration:  %.3fs\n", clip.Duration())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Skeleton:")
	if err := m.Skeleton.Dump(w); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Animated joints:")
	joints := clip.Joints()
	sort.Strings(joints)
	for _, j := range joints {
		fmt.Fprintf(w, "  %s\n", j)
	}
	return nil
}

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	common := newCommonFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animtool validate [-lenient] [-fallback] <scene.yaml>...")
		return errUsage
	}
	common.initLogger()

	failed := validate(os.Stdout, fs.Args(), common.options())
	if failed > 0 {
		return fmt.Errorf("%d of %d scenes failed", failed, fs.NArg())
	}
	return nil
}

// validate imports every path and plays one full loop of each clip. It
// returns the number of failures.
func validate(w io.Writer, paths []string, opts model.LoadOptions) int {
	failed := 0
	for _, path := range paths {
		if err := validateOne(path, opts); err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", path)
	}
	return failed
}

func validateOne(path string, opts model.LoadOptions) error {
	doc, err := dae.LoadFile(path)
	if err != nil {
		return err
	}
	m, err := model.Load(doc, opts)
	if err != nil {
		return err
	}
	if !m.Animated() {
		return nil
	}
	return m.Player.CheckFrames()
}

func cmdSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	common := newCommonFlags(fs)
	at := fs.Float64("t", 0, "First sample time in seconds")
	steps := fs.Int("n", 1, "Number of samples")
	step := fs.Float64("dt", 0.1, "Time between samples")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: animtool sample [-t sec] [-n steps] [-dt sec] <scene.yaml>")
		return errUsage
	}
	common.initLogger()

	doc, err := dae.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := model.Load(doc, common.options())
	if err != nil {
		return err
	}
	return sample(os.Stdout, m, float32(*at), float32(*step), *steps)
}

// sample poses the mesh at n evenly spaced times and prints each joint's
// skinning matrix translation and the skinned bounds.
func sample(w io.Writer, m *model.AnimatedMesh, start, step float32, n int) error {
	if !m.Animated() {
		return errors.New("scene has no animation")
	}
	names := m.Skeleton.Names()
	for i := 0; i < n; i++ {
		t := start + float32(i)*step
		if err := m.Player.PauseToPose(t); err != nil {
			return err
		}
		fmt.Fprintf(w, "t=%.3f (clip %.3f)\n", t, m.Player.Time())
		for j, mat := range m.Skeleton.GlobalTransformMatrices() {
			tr := mat.Translation()
			fmt.Fprintf(w, "  %-16s % .4f % .4f % .4f\n", names[j], tr.X, tr.Y, tr.Z)
		}
		b := m.SkinnedBounds()
		fmt.Fprintf(w, "  bounds min %v max %v\n", b.Min, b.Max)
	}
	return nil
}

func cmdConfig(args []string) error {
	cfg := config.Default()
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote: %s\n", args[0])
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Wrote: %s\n", config.ConfigDir())
	return nil
}
