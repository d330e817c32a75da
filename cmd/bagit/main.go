package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	raven "github.com/getsentry/raven-go"

	"github.com/sulibs/bagit/bagger"
	"github.com/sulibs/bagit/events"
	"github.com/sulibs/bagit/profile"
	"github.com/sulibs/bagit/store"
	"github.com/sulibs/bagit/validator"
)

// exit codes
const (
	exitOK      = 0 // run completed with no validation errors
	exitInvalid = 1 // run completed, bag had validation errors
	exitUsage   = 2 // bad parameters
	exitRuntime = 3 // something broke
)

var (
	configFile  = flag.String("config", "", "path to TOML configuration file")
	profileFile = flag.String("profile", "", "profile file (JSON or YAML); the built-in default is used if empty")
	standard    = flag.Bool("standard", false, "treat -profile as standard bagit-profiles JSON")
	noValidate  = flag.Bool("novalidate", false, "skip validating a bag after writing it")
	usage       = `
bagit [options] <command> <command arguments>

Possible commands:
    validate <bag path>

    bag <output path (directory or .tar)> <source directory>

    profiles list

    profiles add <profile file>

    profiles delete <profile id>

    profile export <profile file>
`
)

// Config is the host configuration file.
type Config struct {
	SlowMotionDelay           int
	DisableSerializationCheck bool
	SentryDSN                 string
	ProfilesDir               string
}

func main() {
	flag.Parse()
	os.Exit(run(flag.Args()))
}

func run(args []string) int {
	var config Config
	if *configFile != "" {
		if _, err := toml.DecodeFile(*configFile, &config); err != nil {
			log.Println("Error reading configuration:", err)
			return exitUsage
		}
	}
	if config.SentryDSN != "" {
		raven.SetDSN(config.SentryDSN)
	}
	if config.ProfilesDir == "" {
		home, _ := os.UserHomeDir()
		config.ProfilesDir = filepath.Join(home, ".bagit", "profiles")
	}
	conf := events.Config{
		SlowMotionDelay:           config.SlowMotionDelay,
		DisableSerializationCheck: config.DisableSerializationCheck,
	}

	if len(args) == 0 {
		fmt.Println(usage)
		return exitUsage
	}
	switch args[0] {
	case "validate":
		if len(args) != 2 {
			fmt.Println(usage)
			return exitUsage
		}
		return dovalidate(conf, args[1])
	case "bag":
		if len(args) != 3 {
			fmt.Println(usage)
			return exitUsage
		}
		return dobag(conf, args[1], args[2])
	case "profiles":
		return doprofiles(config, args[1:])
	case "profile":
		if len(args) != 3 || args[1] != "export" {
			fmt.Println(usage)
			return exitUsage
		}
		return doexport(args[2])
	}
	fmt.Println(usage)
	return exitUsage
}

// loadProfile resolves the -profile and -standard flags.
func loadProfile() (*profile.Profile, error) {
	if *profileFile == "" {
		return profile.BuiltinDefault(), nil
	}
	if *standard {
		data, err := os.ReadFile(*profileFile)
		if err != nil {
			return nil, err
		}
		return profile.ImportStandard(data)
	}
	return profile.Load(*profileFile)
}

// consoleMonitor prints validation errors as they happen.
type consoleMonitor struct {
	events.NopMonitor
}

func (consoleMonitor) OnError(message string) {
	fmt.Println("ERROR:", message)
}

func dovalidate(conf events.Config, bagPath string) int {
	p, err := loadProfile()
	if err != nil {
		log.Println("Error loading profile:", err)
		raven.CaptureError(err, nil)
		return exitRuntime
	}
	v := validator.New(bagPath, p, conf, consoleMonitor{})
	problems := v.Validate(context.Background())
	if len(problems) > 0 {
		fmt.Printf("%s is not valid (%d errors)\n", bagPath, len(problems))
		return exitInvalid
	}
	fmt.Println(bagPath, "is valid")
	return exitOK
}

func dobag(conf events.Config, outPath, sourceDir string) int {
	p, err := loadProfile()
	if err != nil {
		log.Println("Error loading profile:", err)
		return exitRuntime
	}
	sources, err := gathersources(sourceDir)
	if err != nil {
		log.Println("Error listing sources:", err)
		raven.CaptureError(err, nil)
		return exitRuntime
	}
	b := bagger.New(outPath, p, sources, conf, consoleMonitor{})
	if problems := b.Run(context.Background()); len(problems) > 0 {
		return exitRuntime
	}
	fmt.Printf("Wrote %s (%s payload)\n", outPath, b.Oxum())
	if *noValidate {
		return exitOK
	}
	return dovalidate(conf, outPath)
}

// gathersources walks a directory and maps each file to the same
// relative path under data/.
func gathersources(root string) ([]bagger.Source, error) {
	var sources []bagger.Source
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		sources = append(sources, bagger.Source{
			AbsPath: p,
			Dest:    filepath.ToSlash(rel),
		})
		return nil
	})
	return sources, err
}

func doprofiles(config Config, args []string) int {
	if len(args) == 0 {
		fmt.Println(usage)
		return exitUsage
	}
	repo := profile.NewRepository(store.NewFileSystem(config.ProfilesDir))
	if err := os.MkdirAll(config.ProfilesDir, 0775); err != nil {
		log.Println("Error creating profile directory:", err)
		return exitRuntime
	}
	if err := repo.EnsureBuiltins(); err != nil {
		log.Println("Error saving built-in profiles:", err)
		return exitRuntime
	}
	switch args[0] {
	case "list":
		profiles, err := repo.List()
		if err != nil {
			log.Println("Error listing profiles:", err)
			return exitRuntime
		}
		for _, p := range profiles {
			builtin := ""
			if p.IsBuiltIn {
				builtin = " (built-in)"
			}
			fmt.Printf("%s  %s%s\n", p.ID, p.Name, builtin)
		}
		return exitOK
	case "add":
		if len(args) != 2 {
			fmt.Println(usage)
			return exitUsage
		}
		p, err := profile.Load(args[1])
		if err != nil {
			log.Println("Error loading profile:", err)
			return exitRuntime
		}
		if err := p.Validate(); err != nil {
			log.Println("Profile is not valid:", err)
			return exitInvalid
		}
		if err := repo.Save(p); err != nil {
			log.Println("Error saving profile:", err)
			return exitRuntime
		}
		fmt.Println("Saved profile", p.Name)
		return exitOK
	case "delete":
		if len(args) != 2 {
			fmt.Println(usage)
			return exitUsage
		}
		if err := repo.Delete(args[1]); err != nil {
			log.Println("Error deleting profile:", err)
			return exitRuntime
		}
		return exitOK
	}
	fmt.Println(usage)
	return exitUsage
}

func doexport(path string) int {
	p, err := profile.Load(path)
	if err != nil {
		log.Println("Error loading profile:", err)
		return exitRuntime
	}
	data, err := p.ExportStandard()
	if err != nil {
		log.Println("Error exporting profile:", err)
		return exitRuntime
	}
	os.Stdout.Write(data)
	fmt.Println()
	return exitOK
}
