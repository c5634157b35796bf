package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hammy/internal/config"
	hammyerrors "hammy/internal/errors"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hammy configuration",
	Long:  "View and manage hammy configuration stored in config/hammy.yaml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and HAMMY_*
environment overrides are applied.

Examples:
  hammy config show
  hammy config show --format=json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write config/hammy.yaml with the default settings.

Examples:
  hammy config init
  hammy config init --force   # overwrite an existing file`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string         `json:"config_path,omitempty"`
	UsedDefaults bool           `json:"used_defaults"`
	EnvOverrides []string       `json:"env_overrides"`
	Config       *config.Config `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	path := config.ConfigPath(env.root)
	resp := &ConfigShowResponse{
		ConfigPath:   path,
		UsedDefaults: path == "",
		EnvOverrides: envOverrides(os.Environ()),
		Config:       env.cfg,
	}
	return env.render(resp)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := getRepoRoot()
	if err != nil {
		return err
	}
	if existing := config.ConfigPath(root); existing != "" && !configInitForce {
		return hammyerrors.Newf(hammyerrors.InvalidArgument, "configuration already exists at %s (use --force to overwrite)", existing)
	}

	cfg := config.DefaultConfig()
	path, err := cfg.Save(root)
	if err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// envOverrides lists the names of HAMMY_* variables set in environ.
func envOverrides(environ []string) []string {
	out := []string{}
	prefix := config.EnvPrefix + "_"
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func formatConfigHuman(r *ConfigShowResponse) string {
	var b strings.Builder
	if r.UsedDefaults {
		b.WriteString("# No configuration file found; showing defaults\n")
	} else {
		fmt.Fprintf(&b, "# %s\n", r.ConfigPath)
	}
	for _, name := range r.EnvOverrides {
		fmt.Fprintf(&b, "# overridden by %s\n", name)
	}
	data, err := yaml.Marshal(r.Config)
	if err != nil {
		fmt.Fprintf(&b, "# cannot render configuration: %v\n", err)
		return b.String()
	}
	b.Write(data)
	return b.String()
}
