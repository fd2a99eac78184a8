// host is a minimal lla-style lister wired to the plugin runtime: it
// discovers plugin libraries, decorates each directory entry through the
// enabled plugins, and prints one line per entry with the plugins' field
// fragments appended.
//
// Build the sample plugins first, then point the host at them:
//
//	go build -buildmode=plugin -o plugins/file_tagger.so ./plugins/file_tagger
//	go build -buildmode=plugin -o plugins/file_hash.so ./plugins/file_hash
//	go run ./host -plugins-dir plugins -enable file_tagger -enable file_hash .
package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/triyanox/lla/lib/api"
	"github.com/triyanox/lla/lib/config"
	"github.com/triyanox/lla/lib/lister"
	"github.com/triyanox/lla/lib/plugin"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var (
		configPath  = flag.String("config", "", "config file (default ~/.config/lla/config.toml)")
		pluginsDir  = flag.String("plugins-dir", "", "override the configured plugins directory")
		format      = flag.String("format", "", "render format (default from config)")
		listPlugins = flag.Bool("list-plugins", false, "list loaded plugins and exit")
		clean       = flag.Bool("clean", false, "drop plugins whose library file is gone, then exit")
		pluginName  = flag.String("plugin", "", "plugin to send an action to")
		action      = flag.String("action", "", "action name for -plugin")
		enable      stringList
		disable     stringList
		actionArgs  stringList
	)
	flag.Var(&enable, "enable", "enable a plugin before listing (repeatable)")
	flag.Var(&disable, "disable", "disable a plugin before listing (repeatable)")
	flag.Var(&actionArgs, "arg", "argument for -action (repeatable)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := run(log, *configPath, *pluginsDir, *format, *listPlugins, *clean,
		*pluginName, *action, enable, disable, actionArgs, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Logger, configPath, pluginsDir, format string,
	listPlugins, clean bool, pluginName, action string,
	enable, disable, actionArgs, dirs []string) error {

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	if pluginsDir == "" {
		pluginsDir = cfg.PluginsDir
	}
	if format == "" {
		format = cfg.DefaultFormat
	}

	registry := plugin.NewRegistry(cfg, log)
	if err := registry.DiscoverPlugins(pluginsDir); err != nil {
		return err
	}

	for _, name := range enable {
		if err := registry.Enable(name); err != nil {
			return err
		}
	}
	for _, name := range disable {
		if err := registry.Disable(name); err != nil {
			return err
		}
	}

	switch {
	case clean:
		for _, name := range registry.Clean() {
			fmt.Printf("removed %s\n", name)
		}
		return nil
	case listPlugins:
		for _, info := range registry.List() {
			state := "disabled"
			if info.Enabled {
				state = "enabled"
			}
			fmt.Printf("%-16s v%-8s %-8s %s\n", info.Name, info.Version, state, info.Description)
		}
		return nil
	case pluginName != "":
		if action == "" {
			return fmt.Errorf("-plugin requires -action")
		}
		return registry.PerformAction(pluginName, action, actionArgs)
	}

	dir := "."
	if len(dirs) > 0 {
		dir = dirs[0]
	}
	return list(registry, dir, format)
}

func list(registry *plugin.Registry, dir, format string) error {
	entries, err := lister.Collect(context.Background(), dir, 0)
	if err != nil {
		return err
	}

	// The parallel phase is over; from here every plugin call is
	// sequential.
	for _, entry := range entries {
		registry.DecorateEntry(entry, format)
		line := renderEntry(entry)
		if fields := registry.FormatFields(entry, format); len(fields) > 0 {
			line += "  " + strings.Join(fields, " ")
		}
		fmt.Println(line)
	}
	return nil
}

func renderEntry(entry *api.DecoratedEntry) string {
	kind := "-"
	switch {
	case entry.Metadata.IsDir:
		kind = "d"
	case entry.Metadata.IsSymlink:
		kind = "l"
	}
	return fmt.Sprintf("%s %10d  %s", kind, entry.Metadata.Size, filepath.Base(entry.Path))
}
