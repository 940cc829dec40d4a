package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "amap_config"
	envPrefix  = "AMAP"
)

var (
	cfg     Config
	current *viper.Viper
)

var home = os.Getenv("HOME")

func getViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("json")
	v.AddConfigPath(".")           // config file reading order starts with current working directory
	v.AddConfigPath("$HOME/.amap") // then home directory
	v.AddConfigPath("/etc/amap/")  // finally /etc/amap
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaultConfig() *viper.Viper {
	v := getViper()
	v.SetDefault("general.data_dir", home+"/.amap")
	v.SetDefault("general.log_dir", filepath.Join(os.TempDir(), "amap"))
	v.SetDefault("general.debug", false)

	v.SetDefault("resources.min_free_cpu_cores", 2)
	v.SetDefault("resources.fraction_free_ram", 0.1)
	v.SetDefault("resources.ram_needed_per_process", 0)
	v.SetDefault("resources.n_max_processes", 0)
	v.SetDefault("resources.max_ram_usage", 0)

	v.SetDefault("registration.binaries_path", home+"/.amap/nifty_reg")
	v.SetDefault("registration.affine_n_steps", 6)
	v.SetDefault("registration.affine_use_n_steps", 5)
	v.SetDefault("registration.freeform_n_steps", 6)
	v.SetDefault("registration.freeform_use_n_steps", 4)
	v.SetDefault("registration.bending_energy_weight", 0.95)
	v.SetDefault("registration.grid_spacing_x", -10)
	v.SetDefault("registration.smoothing_sigma_reference", -1.0)
	v.SetDefault("registration.smoothing_sigma_floating", -1.0)
	v.SetDefault("registration.histogram_n_bins_reference", 128)
	v.SetDefault("registration.histogram_n_bins_floating", 128)

	v.SetDefault("atlas.path", "")
	v.SetDefault("atlas.brain_path", "")
	v.SetDefault("atlas.hemispheres_path", "")
	v.SetDefault("atlas.pixel_size.x", 10.0)
	v.SetDefault("atlas.pixel_size.y", 10.0)
	v.SetDefault("atlas.pixel_size.z", 10.0)
	return v
}

func LoadConfig() {
	paths := []string{
		".",
		home + "/.amap",
		"/etc/amap",
	}
	configFile := configName + ".json"
	current = setDefaultConfig()

	config, err := findConfig(paths, configFile)
	if err != nil {
		current.Unmarshal(&cfg)
		return
	}

	modifiedConfig := removeComments(config)
	if err = current.ReadConfig(bytes.NewBuffer(modifiedConfig)); err != nil { // Viper only reads buffer, keeping comments in original config
		current = setDefaultConfig()
		current.Unmarshal(&cfg)
		return
	}

	if err = current.Unmarshal(&cfg); err != nil {
		current = setDefaultConfig()
		current.Unmarshal(&cfg)
	}
}

// LoadConfigFile reads an explicit config file, bypassing the search paths.
func LoadConfigFile(path string) error {
	config, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	v := setDefaultConfig()
	if err := v.ReadConfig(bytes.NewBuffer(removeComments(config))); err != nil {
		return fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return fmt.Errorf("unable to decode config file %s: %w", path, err)
	}

	current, cfg = v, loaded
	return nil
}

func SetConfig(key string, value interface{}) {
	GetConfig()
	current.Set(key, value)
	err := current.Unmarshal(&cfg)
	if err != nil {
		current = setDefaultConfig()
		current.Unmarshal(&cfg)
	}
}

func GetConfig() *Config {
	if current == nil || reflect.DeepEqual(cfg, Config{}) {
		LoadConfig()
	}
	return &cfg
}

// Lookup returns the value of a dotted config key, e.g. "atlas.pixel_size.x".
func Lookup(key string) (interface{}, bool) {
	GetConfig()
	if !current.IsSet(key) {
		return nil, false
	}
	return current.Get(key), true
}

func findConfig(paths []string, filename string) ([]byte, error) {
	for _, path := range paths {
		fullPath := filepath.Join(path, filename)
		_, err := os.Stat(fullPath)
		if err == nil {
			config, err := os.ReadFile(fullPath)
			if err == nil {
				return config, nil
			} else {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("file not found in any of the paths")
}

func removeComments(configBytes []byte) []byte {
	re := regexp.MustCompile(`(?m)(^|\s)//.*$`) // match '//' comments up to the end of the line
	result := re.ReplaceAll(configBytes, nil)
	return result
}
