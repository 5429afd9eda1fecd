package util

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/convert"
	"github.com/hetianyi/gox/file"
	"github.com/hetianyi/gox/logger"
	"github.com/mitchellh/go-homedir"
)

var serverRegex = regexp.MustCompile(common.SERVER_PATTERN)

// ValidateClientConfig validates client config, initializes the logger
// and parses the storage server list.
func ValidateClientConfig(c *common.ClientConfig) error {
	if c == nil {
		return errors.New("no config provided")
	}
	ExchangeEnvValue(common.ENV_STORAGES, func(envValue string) {
		c.Storages = strings.Split(envValue, ",")
	})
	ExchangeEnvValue(common.ENV_LOG_LEVEL, func(envValue string) {
		c.LogLevel = envValue
	})

	// check timeouts
	if c.ConnectTimeout < 0 {
		return errors.New("invalid connect timeout " + convert.IntToStr(c.ConnectTimeout))
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = common.DEFAULT_CONNECT_TIMEOUT
	}
	if c.NetworkTimeout < 0 {
		return errors.New("invalid network timeout " + convert.IntToStr(c.NetworkTimeout))
	}
	if c.NetworkTimeout == 0 {
		c.NetworkTimeout = common.DEFAULT_NETWORK_TIMEOUT
	}

	// check log level
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel != "trace" && c.LogLevel != "debug" && c.LogLevel != "info" &&
		c.LogLevel != "warn" && c.LogLevel != "error" && c.LogLevel != "fatal" {
		c.LogLevel = "info"
	}
	logger.Init(&logger.Config{
		Level:              ConvertLogLevel(c.LogLevel),
		AlwaysWriteConsole: true,
	})

	// parse storage servers
	servers, err := ParseServers(c.Storages)
	if err != nil {
		return err
	}
	c.ParsedStorages = servers
	return nil
}

// ValidateGatewayConfig validates gateway config.
func ValidateGatewayConfig(c *common.GatewayConfig) error {
	if c == nil {
		return errors.New("no config provided")
	}
	if c.HttpPort == 0 {
		c.HttpPort = common.DEFAULT_GATEWAY_HTTP_PORT
	}
	// check http port range
	if c.HttpPort < 0 || c.HttpPort > 65535 {
		return errors.New("invalid http port number " +
			convert.IntToStr(c.HttpPort) + ", port number must in the range of 0 to 65535")
	}
	if err := ValidateClientConfig(&c.ClientConfig); err != nil {
		return err
	}
	if len(c.ParsedStorages) == 0 {
		return errors.New("no storage server configured")
	}
	return nil
}

// ParseServer parses a storage server from "[group@]host:port[/storePathIndex]".
func ParseServer(s string) (*common.StorageServer, error) {
	s = strings.TrimSpace(s)
	m := serverRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.New("invalid server string \"" + s +
			"\", server must match pattern " + common.SERVER_PATTERN)
	}
	port, err := convert.StrToInt(m[4])
	if err != nil || port > 65535 {
		return nil, errors.New("invalid port number in server string \"" + s + "\"")
	}
	ret := &common.StorageServer{
		Server: common.Server{
			Host: m[3],
			Port: uint16(port),
		},
		Group: m[2],
	}
	if m[6] != "" {
		index, err := convert.StrToInt(m[6])
		if err != nil || index > 255 {
			return nil, errors.New("invalid store path index in server string \"" + s + "\"")
		}
		ret.StorePathIndex = byte(index)
	}
	if ret.Group != "" {
		if ok, _ := regexp.MatchString(common.GROUP_PATTERN, ret.Group); !ok {
			return nil, errors.New("invalid group \"" + ret.Group +
				"\", group must match pattern " + common.GROUP_PATTERN)
		}
	}
	return ret, nil
}

// ParseServers parses a storage server list, blank items are skipped.
func ParseServers(servers []string) ([]common.StorageServer, error) {
	var ret []common.StorageServer
	for _, s := range servers {
		if strings.TrimSpace(s) == "" {
			continue
		}
		server, err := ParseServer(s)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *server)
	}
	return ret, nil
}

func ConvertLogLevel(levelString string) logger.Level {
	switch strings.ToLower(levelString) {
	case "trace":
		return logger.TraceLevel
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	case "fatal":
		return logger.FatalLevel
	default:
		return logger.InfoLevel
	}
}

// ExchangeEnvValue calls then with the value of the environment
// variable key if it is set.
func ExchangeEnvValue(key string, then func(envValue string)) {
	envVal := strings.TrimSpace(os.Getenv(key))
	if envVal != "" {
		logger.Debug("config property \"", key, "\" load from environment")
		then(envVal)
	}
}

// DefaultConfigDir returns ~/.gofdfs.
func DefaultConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, common.DEFAULT_CONFIG_DIR_NAME), nil
}

// InitialConfigMap opens the config map at path, creating its directory
// if needed.
func InitialConfigMap(path string) (*common.ConfigMap, error) {
	logger.Debug("initial config map: ", path)
	dir := filepath.Dir(path)
	if !file.Exists(dir) {
		if err := file.CreateDirs(dir); err != nil {
			return nil, err
		}
	}
	configMap, err := common.NewConfigMap(path)
	if err != nil {
		return nil, errors.New("cannot initialize configMap file: " + err.Error())
	}
	return configMap, nil
}

// ApplyConfigMap fills the fields of c left empty with persisted settings.
func ApplyConfigMap(c *common.ClientConfig, configMap *common.ConfigMap) error {
	if configMap == nil {
		return nil
	}
	if len(c.Storages) == 0 {
		v, err := configMap.GetConfig(common.CONFIG_KEY_STORAGES)
		if err != nil {
			return err
		}
		if len(v) > 0 {
			c.Storages = strings.Split(string(v), ",")
		}
	}
	if c.LogLevel == "" {
		v, err := configMap.GetConfig(common.CONFIG_KEY_LOG_LEVEL)
		if err != nil {
			return err
		}
		c.LogLevel = string(v)
	}
	for key, field := range map[string]*int{
		common.CONFIG_KEY_CONNECT_TIMEOUT: &c.ConnectTimeout,
		common.CONFIG_KEY_NETWORK_TIMEOUT: &c.NetworkTimeout,
	} {
		if *field != 0 {
			continue
		}
		v, err := configMap.GetConfig(key)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			continue
		}
		n, err := convert.StrToInt(string(v))
		if err != nil {
			return errors.New("invalid persisted value of " + key + ": " + string(v))
		}
		*field = n
	}
	return nil
}

// CheckConfigKey validates a setting before it is persisted.
// An empty value removes the setting.
func CheckConfigKey(key string, value string) error {
	switch key {
	case common.CONFIG_KEY_STORAGES:
		_, err := ParseServers(strings.Split(value, ","))
		return err
	case common.CONFIG_KEY_LOG_LEVEL:
		return nil
	case common.CONFIG_KEY_CONNECT_TIMEOUT, common.CONFIG_KEY_NETWORK_TIMEOUT:
		if value == "" {
			return nil
		}
		if n, err := convert.StrToInt(value); err != nil || n < 0 {
			return errors.New("invalid value of " + key + ": " + value)
		}
		return nil
	}
	return errors.New("unknown config key: " + key)
}
