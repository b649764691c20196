// Command auditlogd is the thin process-lifecycle façade spec §1 treats
// as a collaborator, not core: it loads config, wires a manager.Manager,
// and runs until stdin is exhausted, then stops the manager. It installs
// no signal handlers. Grounded on
// _examples/njcx-libbeat_v8/scripts/cmd/stress_pipeline/main.go's
// flag/config/paths/logging wiring.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	conf "github.com/elastic/elastic-agent-libs/config"
	logpcfg "github.com/elastic/elastic-agent-libs/logp/configure"
	"github.com/elastic/elastic-agent-libs/paths"
	"github.com/elastic/elastic-agent-libs/service"

	"github.com/njcx/auditlogd/entry"
	"github.com/njcx/auditlogd/manager"
)

var runFlags = pflag.NewFlagSet("auditlogd", pflag.ExitOnError)

var overwrites = conf.SettingFlag(runFlags, "E", "Configuration overwrite, e.g. -E manager.base_path=/var/log/audit")

type fileConfig struct {
	Path    paths.Path
	Logging *conf.C
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := runFlags.Parse(os.Args[1:]); err != nil {
		return err
	}
	files := runFlags.Args()

	cfg, err := loadConfigFiles(files...)
	if err != nil {
		return err
	}

	service.BeforeRun()
	defer service.Cleanup()

	if err := cfg.Merge(overwrites); err != nil {
		return fmt.Errorf("auditlogd: merging overwrites: %w", err)
	}

	fc := fileConfig{}
	if err := cfg.Unpack(&fc); err != nil {
		return fmt.Errorf("auditlogd: unpacking config: %w", err)
	}

	if err := paths.InitPaths(&fc.Path); err != nil {
		return err
	}
	if err := logpcfg.Logging("auditlogd", fc.Logging); err != nil {
		return err
	}

	// A missing "manager" section is not an error: LoadConfig treats a nil
	// *conf.C as empty and falls back to manager.DefaultConfig().
	managerSection, _ := cfg.Child("manager", -1)
	managerCfg, err := manager.LoadConfig(managerSection)
	if err != nil {
		return fmt.Errorf("auditlogd: %w", err)
	}

	m, err := manager.New(managerCfg, manager.Monitors{}, nil)
	if err != nil {
		return fmt.Errorf("auditlogd: %w", err)
	}
	m.Start()
	defer m.Stop(5 * time.Second)

	return ingestStdin(m)
}

// ingestStdin is a minimal embedding example: one line of stdin becomes
// one CREATE-action entry on the default stream. Real embedders call
// manager.Manager directly instead of running this process.
func ingestStdin(m *manager.Manager) error {
	tok, err := m.ProducerToken()
	if err != nil {
		return err
	}
	defer tok.Release()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		e := entry.New(entry.ActionCreate, nil, append([]byte(nil), line...))
		if err := m.Append(tok, e, ""); err != nil {
			return fmt.Errorf("auditlogd: append: %w", err)
		}
	}
	return scanner.Err()
}

// loadConfigFiles merges one or more YAML config files, the way
// common.LoadFiles does in the teacher's stress_pipeline entrypoint,
// without pulling in the rest of the beats common package.
func loadConfigFiles(files ...string) (*conf.C, error) {
	merged := conf.NewConfig()
	for _, f := range files {
		c, err := conf.LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("auditlogd: loading %s: %w", f, err)
		}
		if err := merged.Merge(c); err != nil {
			return nil, fmt.Errorf("auditlogd: merging %s: %w", f, err)
		}
	}
	return merged, nil
}
