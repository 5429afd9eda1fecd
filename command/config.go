package command

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gofdfs/util"
	"github.com/hetianyi/gox/logger"
)

// configMapFile overrides the default config map location when not empty.
var configMapFile string

func configMapLocation() (string, error) {
	if configMapFile != "" {
		return configMapFile, nil
	}
	dir, err := util.DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.DEFAULT_CONFIG_MAP_FILE), nil
}

// openConfigMap opens the config map, the caller must close it by closeConfigMap.
func openConfigMap() (*common.ConfigMap, error) {
	location, err := configMapLocation()
	if err != nil {
		return nil, err
	}
	return util.InitialConfigMap(location)
}

func closeConfigMap(configMap *common.ConfigMap) {
	if err := configMap.Close(); err != nil {
		logger.Warn("error close config map: ", err)
	}
}

// ConfigAssembly assembles the configuration of a command.
// Command flags override the config file, environment variables override
// both, and the persisted config map fills the settings left empty.
func ConfigAssembly(cmd Command) (*common.GatewayConfig, error) {
	c := &common.GatewayConfig{}
	if configFile != "" {
		if err := util.LoadConfig(configFile, c); err != nil {
			return nil, errors.New("error load config file \"" + configFile + "\": " + err.Error())
		}
	}
	if storages != "" {
		c.Storages = strings.Split(storages, ",")
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if gatewayBindAddress != "" {
		c.BindAddress = gatewayBindAddress
	}
	if gatewayPort != 0 {
		c.HttpPort = gatewayPort
	}

	configMap, err := openConfigMap()
	if err != nil {
		logger.Warn("persisted settings are not available: ", err)
	} else {
		err = util.ApplyConfigMap(&c.ClientConfig, configMap)
		closeConfigMap(configMap)
		if err != nil {
			return nil, err
		}
	}

	if cmd == BOOT_GATEWAY {
		if err := util.ValidateGatewayConfig(c); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := util.ValidateClientConfig(&c.ClientConfig); err != nil {
		return nil, err
	}
	if len(c.ParsedStorages) == 0 {
		return nil, errors.New("no storage server configured, use --storages or \"config set " +
			common.CONFIG_KEY_STORAGES + "=...\"")
	}
	return c, nil
}
