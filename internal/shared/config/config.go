package config

import (
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"logsock/internal/shared/types"
)

// LoadIni loads the logsock.ini behavior configuration file and applies
// environment overrides on top of it.
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	applyEnv(cfg)
	cfg.ApplyDefaults()
	return nil
}

// LoadDefaults builds a configuration without an ini file. Used when the
// daemon is started with no config directory at all.
func LoadDefaults(cfg *types.Config) {
	applyEnv(cfg)
	cfg.ApplyDefaults()
}

func applyEnv(cfg *types.Config) {
	overrideFromEnvString(&cfg.SocketPath, "LOGSOCK_SOCKET_PATH")
	overrideFromEnvInt(&cfg.WebPort, "LOGSOCK_WEB_PORT")
	overrideFromEnvString(&cfg.Level, "LOGSOCK_LOG_LEVEL")
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
